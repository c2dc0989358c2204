package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/TTTT0803/VKUMentor-App/internal/http/middleware"
)

// Home devolve a primeira página de banners, competições e parceiros.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	_, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	home, err := h.home.Home(r.Context(), httpmiddleware.GetSubject(r.Context()), size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, home)
}

// HomeSection pagina uma seção da home.
func (h *Handler) HomeSection(w http.ResponseWriter, r *http.Request) {
	token, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := h.home.Section(r.Context(), httpmiddleware.GetSubject(r.Context()), chi.URLParam(r, "section"), token, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}
