package http

import (
	"io"
	"net/http"
	"strings"

	httpmiddleware "github.com/TTTT0803/VKUMentor-App/internal/http/middleware"
	"github.com/TTTT0803/VKUMentor-App/internal/service"
	"github.com/TTTT0803/VKUMentor-App/internal/storage"
)

// ListPosts lista posts da comunidade, mais recentes primeiro.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	token, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := h.community.ListPosts(r.Context(), httpmiddleware.GetSubject(r.Context()), token, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// CreatePost publica post (mentores).
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var payload service.PostInput
	if !decodeBody(w, r, &payload) {
		return
	}
	post, err := h.community.CreatePost(r.Context(), httpmiddleware.GetSubject(r.Context()), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, post)
}

// Upload recebe imagem em multipart (campo file) ou corpo bruto; kind vem do form ou da query.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageBytes+1<<20)

	var body []byte
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(storage.MaxImageBytes); err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido", nil)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo ausente", nil)
			return
		}
		defer file.Close()
		body, err = io.ReadAll(io.LimitReader(file, storage.MaxImageBytes+1))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "falha ao ler arquivo", nil)
			return
		}
	} else {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			WriteError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "arquivo muito grande", nil)
			return
		}
	}

	kind, ok := storage.ParseKind(r.FormValue("kind"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "kind deve ser avatars, mentors ou posts", nil)
		return
	}
	if len(body) == 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo vazio", nil)
		return
	}

	res, err := h.community.Upload(r.Context(), httpmiddleware.GetSubject(r.Context()), kind, body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, res)
}
