package promotion

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes promotion HTTP endpoints for staff.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/promotions", func(r chi.Router) {
		r.Post("/", h.createPromotion)
		r.Get("/", h.listPromotions)
		r.Get("/{code}", h.getPromotion)
		r.Put("/{code}", h.updatePromotion)
		r.Delete("/{code}", h.deletePromotion)
	})
}

func (h *Handler) createPromotion(w http.ResponseWriter, r *http.Request) {
	var req PromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreatePromotion(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) listPromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := h.service.ListPromotions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, promos)
}

func (h *Handler) getPromotion(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPromotion(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) updatePromotion(w http.ResponseWriter, r *http.Request) {
	var req PromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdatePromotion(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) deletePromotion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePromotion(r.Context(), chi.URLParam(r, "code")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalid):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrExists):
		code = http.StatusConflict
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
