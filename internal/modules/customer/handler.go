package customer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/order"
)

// OrderLister lists the orders a customer owns.
type OrderLister interface {
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]*order.Order, error)
}

type Handler struct {
	service Service
	orders  OrderLister
}

func NewHandler(service Service, orders OrderLister) *Handler {
	return &Handler{service: service, orders: orders}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/customers", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(r chi.Router) {
			r.Use(Authenticate(h.service))
			r.Get("/me", h.me)
			r.Get("/me/orders", h.myOrders)
		})
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := h.service.Register(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, c)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, token)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, _ := IDFromContext(r.Context())
	c, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := IDFromContext(r.Context())
	orders, err := h.orders.ListCustomerOrders(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	respond(w, http.StatusOK, orders)
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidCustomer):
		status = http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrCustomerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrCustomerExists):
		status = http.StatusConflict
	}
	respond(w, status, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
