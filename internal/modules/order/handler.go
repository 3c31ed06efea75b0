package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/inventory"
)

// Handler exposes order HTTP endpoints.
type Handler struct {
	service Service
	loc     *time.Location
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, loc: time.Local}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listByDateRange) // ?start=2024-01-01&end=2024-01-31
		r.Get("/track/{code}", h.trackOrder)
		r.Get("/{id}", h.getOrder)
		r.Post("/{id}/confirm", h.confirmOrder)
		r.Patch("/{id}/status", h.updateStatus)
		r.Post("/{id}/cancel", h.cancelOrder)
	})
	r.Get("/api/v1/reports/revenue/daily", h.dailyRevenue)     // ?date=2024-01-31
	r.Get("/api/v1/reports/menu-items", h.menuItemPerformance) // ?start=2024-01-01&end=2024-01-31
}

type guestRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type lineRequest struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
}

// CreateOrderRequest is the JSON body for placing an order. Exactly one of
// CustomerID and Guest must be set.
type CreateOrderRequest struct {
	CustomerID    *uuid.UUID    `json:"customer_id,omitempty"`
	Guest         *guestRequest `json:"guest,omitempty"`
	Items         []lineRequest `json:"items"`
	OrderType     string        `json:"order_type"`
	PromotionCode string        `json:"promotion_code"`
	Description   string        `json:"description"`
}

func (req CreateOrderRequest) toNewOrder() (NewOrder, error) {
	n := NewOrder{
		Type:          Type(req.OrderType),
		PromotionCode: req.PromotionCode,
		Description:   req.Description,
	}
	switch {
	case req.CustomerID != nil && req.Guest != nil:
		return n, newValidationError("provide either customer_id or guest, not both")
	case req.CustomerID != nil:
		n.Owner = CustomerOwner{ID: *req.CustomerID}
	case req.Guest != nil:
		n.Owner = GuestOwner{Name: req.Guest.Name, Phone: req.Guest.Phone, Email: req.Guest.Email}
	}
	for _, it := range req.Items {
		n.Lines = append(n.Lines, LineInput{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}
	return n, nil
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	n, err := req.toNewOrder()
	if err != nil {
		respondError(w, err)
		return
	}
	o, err := h.service.CreateOrder(r.Context(), n)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.TrackOrder(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.ConfirmOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), Status(body.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) parseDate(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, newValidationError(name + " is required (YYYY-MM-DD)")
	}
	t, err := time.ParseInLocation("2006-01-02", value, h.loc)
	if err != nil {
		return time.Time{}, newValidationError(name + " must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func (h *Handler) listByDateRange(w http.ResponseWriter, r *http.Request) {
	start, err := h.parseDate(r.URL.Query().Get("start"), "start")
	if err != nil {
		respondError(w, err)
		return
	}
	end, err := h.parseDate(r.URL.Query().Get("end"), "end")
	if err != nil {
		respondError(w, err)
		return
	}
	summaries, err := h.service.GetOrdersByDateRange(r.Context(), start, end)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, summaries)
}

func (h *Handler) dailyRevenue(w http.ResponseWriter, r *http.Request) {
	day, err := h.parseDate(r.URL.Query().Get("date"), "date")
	if err != nil {
		respondError(w, err)
		return
	}
	revenue, err := h.service.DailyRevenue(r.Context(), day)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, revenue)
}

func (h *Handler) menuItemPerformance(w http.ResponseWriter, r *http.Request) {
	start, err := h.parseDate(r.URL.Query().Get("start"), "start")
	if err != nil {
		respondError(w, err)
		return
	}
	end, err := h.parseDate(r.URL.Query().Get("end"), "end")
	if err != nil {
		respondError(w, err)
		return
	}
	items, err := h.service.MenuItemPerformance(r.Context(), start, end)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

// ErrorStatus maps order lifecycle errors to HTTP status codes and the
// structured details to include in the response, if any.
func ErrorStatus(err error) (int, interface{}) {
	var (
		validation *ValidationError
		transition *InvalidStateTransitionError
		shortage   *inventory.InsufficientInventoryError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation
	case errors.As(err, &transition):
		return http.StatusUnprocessableEntity, transition
	case errors.As(err, &shortage):
		return http.StatusUnprocessableEntity, shortage.Shortages
	case errors.Is(err, ErrOrderNotFound):
		return http.StatusNotFound, nil
	case errors.Is(err, ErrStaleStatus):
		return http.StatusConflict, nil
	}
	return http.StatusInternalServerError, nil
}

func respondError(w http.ResponseWriter, err error) {
	status, details := ErrorStatus(err)
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
