package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum documento é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrEmailInUse indica e-mail já cadastrado.
	ErrEmailInUse = errors.New("e-mail já cadastrado")
	// ErrDuplicate indica id determinístico já ocupado.
	ErrDuplicate = errors.New("registro duplicado")
)
