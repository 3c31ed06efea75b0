package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Handler exposes menu HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/menu/items", func(r chi.Router) {
		r.Post("/", h.createItem)
		r.Get("/", h.listItems) // ?category=vegan&available=true
		r.Get("/{id}", h.getItem)
		r.Put("/{id}", h.updateItem)
		r.Patch("/{id}/availability", h.setAvailability)
		r.Put("/{id}/ingredients/{resource_id}", h.setIngredient)
		r.Delete("/{id}/ingredients/{resource_id}", h.removeIngredient)
	})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	item, err := h.service.CreateItem(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, item)
}

// parseFilter reads ?q=&category=&available=&min_price=&max_price=&max_calories=&sort=.
func parseFilter(q url.Values) (ItemFilter, error) {
	f := ItemFilter{
		Search:        q.Get("q"),
		Category:      Category(q.Get("category")),
		AvailableOnly: q.Get("available") == "true",
		Sort:          ItemSort(q.Get("sort")),
	}
	for name, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		if v := q.Get(name); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return f, fmt.Errorf("%w: %s must be a decimal number", ErrInvalidItem, name)
			}
			*dst = &d
		}
	}
	if v := q.Get("max_calories"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: max_calories must be an integer", ErrInvalidItem)
		}
		f.MaxCalories = &n
	}
	return f, nil
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, err)
		return
	}
	items, err := h.service.ListItems(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	item, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.service.SetAvailability(r.Context(), chi.URLParam(r, "id"), body.Available); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "availability updated"})
}

func (h *Handler) setIngredient(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	err := h.service.SetIngredient(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "resource_id"), body.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ingredient set"})
}

func (h *Handler) removeIngredient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveIngredient(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "resource_id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidItem):
		code = http.StatusBadRequest
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrResourceNotFound):
		code = http.StatusNotFound
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
