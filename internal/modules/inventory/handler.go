package inventory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler exposes inventory HTTP endpoints.
type Handler struct {
	service           Service
	lowStockThreshold int
}

func NewHandler(service Service, lowStockThreshold int) *Handler {
	return &Handler{service: service, lowStockThreshold: lowStockThreshold}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Post("/availability", h.checkAvailability)
		r.Get("/low-stock", h.lowStock) // ?threshold=5

		r.Post("/resources", h.createResource)
		r.Get("/resources", h.listResources)
		r.Post("/resources/{id}/restock", h.restock)
		r.Put("/resources/{id}/amount", h.setAmount)
	})
}

func (h *Handler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []Demand `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	report, err := h.service.CheckAvailability(r.Context(), body.Items)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, report)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.lowStockThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "threshold must be an integer"})
			return
		}
		threshold = n
	}
	resources, err := h.service.LowStockItems(r.Context(), threshold)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, resources)
}

func (h *Handler) createResource(w http.ResponseWriter, r *http.Request) {
	var req ResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := h.service.CreateResource(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, res)
}

func (h *Handler) listResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.service.ListResources(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, resources)
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := h.service.Restock(r.Context(), chi.URLParam(r, "id"), body.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (h *Handler) setAmount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := h.service.SetAmount(r.Context(), chi.URLParam(r, "id"), body.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func respondError(w http.ResponseWriter, err error) {
	var shortage *InsufficientInventoryError
	switch {
	case errors.As(err, &shortage):
		respond(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   err.Error(),
			"details": shortage.Shortages,
		})
	case errors.Is(err, ErrInvalidResource), errors.Is(err, ErrInvalidDemand):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrResourceNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrResourceExists):
		respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
