package util

import (
	"errors"
	"strings"
)

// ErrRatingOutOfRange indica nota fora de 1..5.
var ErrRatingOutOfRange = errors.New("nota deve estar entre 1 e 5")

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}

// ValidateRating verifica a nota de avaliação.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrRatingOutOfRange
	}
	return nil
}
