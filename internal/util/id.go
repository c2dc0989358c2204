package util

import "github.com/google/uuid"

// NewID gera identificador aleatório para documentos e tokens.
func NewID() string {
	return uuid.NewString()
}
