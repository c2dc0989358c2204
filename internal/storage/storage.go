package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/TTTT0803/VKUMentor-App/internal/util"
)

var (
	// ErrNotConfigured indica ausência de backend de upload.
	ErrNotConfigured = errors.New("storage: uploader não configurado")
	// ErrUnsupportedType indica arquivo que não é imagem.
	ErrUnsupportedType = errors.New("storage: apenas imagens são aceitas")
	// ErrTooLarge indica arquivo acima do limite.
	ErrTooLarge = errors.New("storage: arquivo excede o limite")
)

// MaxImageBytes limita uploads de avatar e imagens de post.
const MaxImageBytes = 5 << 20

// Kind agrupa objetos por finalidade; vira o prefixo da chave.
type Kind string

const (
	KindAvatar Kind = "avatars"
	KindMentor Kind = "mentors"
	KindPost   Kind = "posts"
)

// ParseKind valida o tipo informado pelo cliente.
func ParseKind(raw string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindAvatar, KindMentor, KindPost:
		return k, true
	}
	return "", false
}

// UploadInput representa uma operação de upload simples.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	URL  string `json:"url"`
	ETag string `json:"etag,omitempty"`
}

// Uploader define comportamento básico para armazenar blobs.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageInput valida o conteúdo e monta a chave <kind>/<owner>/<id><ext>.
func ImageInput(kind Kind, owner string, body []byte) (UploadInput, error) {
	if len(body) == 0 {
		return UploadInput{}, errors.New("storage: corpo vazio")
	}
	if len(body) > MaxImageBytes {
		return UploadInput{}, ErrTooLarge
	}
	contentType := http.DetectContentType(body)
	ext, ok := imageExt[contentType]
	if !ok {
		return UploadInput{}, ErrUnsupportedType
	}
	key := path.Join(string(kind), owner, util.NewID()+ext)
	return UploadInput{
		Key:          key,
		Body:         body,
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	}, nil
}

// Config escolhe e parametriza o backend.
type Config struct {
	Provider string
	S3       S3Config
}

// New devolve uploader conforme o provider ("s3" ou "none").
func New(cfg Config) (Uploader, error) {
	switch cfg.Provider {
	case "", "none":
		return NoopUploader{}, nil
	case "s3":
		return NewS3Uploader(cfg.S3)
	default:
		return nil, fmt.Errorf("storage: provider desconhecido %q", cfg.Provider)
	}
}
