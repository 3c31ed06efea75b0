package promotion

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("promotion not found")
	ErrInvalid  = errors.New("invalid promotion")
	ErrExists   = errors.New("promotion code already exists")
)

// Promotion is a percentage discount applied at checkout by code.
type Promotion struct {
	Code            string     `json:"code"`
	Description     string     `json:"description,omitempty"`
	DiscountPercent int        `json:"discount_percent"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ActiveAt reports whether the promotion can be redeemed at t. A promotion
// expiring exactly at t is still active.
func (p *Promotion) ActiveAt(t time.Time) bool {
	return p.ExpiresAt == nil || !p.ExpiresAt.Before(t)
}

// PromotionRequest is the payload for creating or replacing a promotion.
type PromotionRequest struct {
	Code            string     `json:"code"`
	Description     string     `json:"description"`
	DiscountPercent int        `json:"discount_percent"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}
