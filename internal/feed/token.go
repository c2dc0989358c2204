package feed

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
)

// ErrInvalidToken indica page token malformado.
var ErrInvalidToken = errors.New("page token inválido")

// EncodeToken serializa o cursor como token opaco.
func EncodeToken(cur *docstore.Cursor) string {
	if cur == nil {
		return ""
	}
	b, err := json.Marshal(cur)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeToken converte token em cursor; token vazio significa primeira página.
func DecodeToken(token string) (*docstore.Cursor, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var cur docstore.Cursor
	if err := json.Unmarshal(b, &cur); err != nil || cur.ID == "" {
		return nil, ErrInvalidToken
	}
	return &cur, nil
}
