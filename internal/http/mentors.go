package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/TTTT0803/VKUMentor-App/internal/http/middleware"
	"github.com/TTTT0803/VKUMentor-App/internal/service"
)

// ListMentors lista mentores aprovados. Sem page_size, a primeira página usa
// o tamanho inicial e as seguintes o tamanho de "carregar mais".
func (h *Handler) ListMentors(w http.ResponseWriter, r *http.Request) {
	token, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	if size == 0 {
		size = h.cfg.Pages.MentorsFirst
		if token != "" {
			size = h.cfg.Pages.MentorsMore
		}
	}

	page, err := h.mentors.ListApproved(r.Context(), httpmiddleware.GetSubject(r.Context()), token, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// GetMentor devolve mentor com avaliações.
func (h *Handler) GetMentor(w http.ResponseWriter, r *http.Request) {
	detail, err := h.mentors.Detail(r.Context(), httpmiddleware.GetSubject(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

// RegisterMentor envia cadastro de mentor para aprovação.
func (h *Handler) RegisterMentor(w http.ResponseWriter, r *http.Request) {
	var payload service.MentorInput
	if !decodeBody(w, r, &payload) {
		return
	}
	m, err := h.mentors.Register(r.Context(), httpmiddleware.GetSubject(r.Context()), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, m)
}

// HireMentor contrata mentor aprovado.
func (h *Handler) HireMentor(w http.ResponseWriter, r *http.Request) {
	hire, err := h.mentors.Hire(r.Context(), httpmiddleware.GetSubject(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, hire)
}

// RateMentor avalia mentor contratado.
func (h *Handler) RateMentor(w http.ResponseWriter, r *http.Request) {
	var payload service.RatingInput
	if !decodeBody(w, r, &payload) {
		return
	}
	rating, err := h.mentors.Rate(r.Context(), httpmiddleware.GetSubject(r.Context()), chi.URLParam(r, "id"), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, rating)
}

// ListPendingMentors lista fila de aprovação.
func (h *Handler) ListPendingMentors(w http.ResponseWriter, r *http.Request) {
	token, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := h.mentors.ListPending(r.Context(), httpmiddleware.GetSubject(r.Context()), token, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// ApproveMentor aprova cadastro pendente.
func (h *Handler) ApproveMentor(w http.ResponseWriter, r *http.Request) {
	m, err := h.mentors.Approve(r.Context(), httpmiddleware.GetSubject(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

// RejectMentor rejeita cadastro pendente.
func (h *Handler) RejectMentor(w http.ResponseWriter, r *http.Request) {
	m, err := h.mentors.Reject(r.Context(), httpmiddleware.GetSubject(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

// UpdateMentor edita cadastro.
func (h *Handler) UpdateMentor(w http.ResponseWriter, r *http.Request) {
	var payload service.MentorInput
	if !decodeBody(w, r, &payload) {
		return
	}
	m, err := h.mentors.Update(r.Context(), httpmiddleware.GetSubject(r.Context()), chi.URLParam(r, "id"), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

// DeleteMentor remove cadastro.
func (h *Handler) DeleteMentor(w http.ResponseWriter, r *http.Request) {
	if err := h.mentors.Delete(r.Context(), httpmiddleware.GetSubject(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
