package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/service"
	"github.com/TTTT0803/VKUMentor-App/internal/storage"
)

// writeServiceError traduz erros de serviço para o envelope padrão.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound),
		errors.Is(err, service.ErrUnknownSection):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidPageToken),
		errors.Is(err, storage.ErrUnsupportedType):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, storage.ErrTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", err.Error(), nil)
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrAlreadyHired),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, service.ErrMentorNotPending):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, service.ErrMentorUnavailable),
		errors.Is(err, service.ErrNotHired):
		WriteError(w, http.StatusUnprocessableEntity, "UNPROCESSABLE", err.Error(), nil)
	case errors.Is(err, storage.ErrNotConfigured):
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
	default:
		log.Error().Err(err).Msg("erro inesperado")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return false
	}
	return true
}

// pageParams lê page_token e page_size; tamanho ausente vira 0 (padrão do serviço).
func pageParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	token := r.URL.Query().Get("page_token")
	raw := r.URL.Query().Get("page_size")
	if raw == "" {
		return token, 0, true
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "page_size inválido", nil)
		return "", 0, false
	}
	return token, size, true
}
