package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/order"
)

// Handler exposes payment HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/", h.processPayment)
		r.Get("/order/{order_id}", h.getByOrder)
		r.Post("/{id}/refund", h.refund)
	})
}

func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request) {
	var req ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.ProcessPayment(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	if p.Status == StatusFailed {
		respond(w, http.StatusPaymentRequired, p)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) getByOrder(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPaymentByOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.RefundPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func respondError(w http.ResponseWriter, err error) {
	var mismatch *AmountMismatchError
	status, details := http.StatusInternalServerError, interface{}(nil)
	switch {
	case errors.As(err, &mismatch):
		status, details = http.StatusUnprocessableEntity, mismatch
	case errors.Is(err, ErrPaymentAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, ErrPaymentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidPayment):
		status = http.StatusBadRequest
	case errors.Is(err, ErrRefundNotAllowed):
		status = http.StatusUnprocessableEntity
	default:
		status, details = order.ErrorStatus(err)
	}
	body := map[string]interface{}{"error": err.Error()}
	if details != nil {
		body["details"] = details
	}
	respond(w, status, body)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
