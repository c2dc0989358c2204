package auth

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/alexedwards/argon2id"
)

var (
	// ErrInvalidCredentials indica e-mail ou senha incorretos.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrWeakPassword indica senha abaixo do mínimo.
	ErrWeakPassword = errors.New("senha deve ter pelo menos 6 caracteres")
	// ErrInvalidEmail indica e-mail malformado.
	ErrInvalidEmail = errors.New("email inválido")
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera um hash Argon2id (inclui os parâmetros dentro do próprio hash).
func Hash(password string) (string, error) {
	if len(password) < 6 {
		return "", ErrWeakPassword
	}
	return argon2id.CreateHash(password, params)
}

// Verify compara a senha com o hash; hash vazio nunca confere.
func Verify(password, encodedHash string) bool {
	if encodedHash == "" {
		return false
	}
	ok, err := argon2id.ComparePasswordAndHash(password, encodedHash)
	return err == nil && ok
}

// NormalizeEmail valida e devolve o e-mail em minúsculas.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// UsernameFromEmail deriva o nome de usuário da parte local do e-mail.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
