package promotion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
)

// Service defines promotion management for staff and lookup for checkout.
type Service interface {
	CreatePromotion(ctx context.Context, req PromotionRequest) (*Promotion, error)
	GetPromotion(ctx context.Context, code string) (*Promotion, error)
	ListPromotions(ctx context.Context) ([]*Promotion, error)
	UpdatePromotion(ctx context.Context, code string, req PromotionRequest) (*Promotion, error)
	DeletePromotion(ctx context.Context, code string) error

	// FindPromotion is the read-only lookup used by pricing.
	FindPromotion(ctx context.Context, code string) (*Promotion, error)
}

type service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) Service {
	return &service{repo: repo, log: logger.WithComponent(log, "promotion_service")}
}

// NormaliseCode trims and upper-cases a promotion code.
func NormaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validate(req PromotionRequest) error {
	if NormaliseCode(req.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalid)
	}
	if req.DiscountPercent < 1 || req.DiscountPercent > 100 {
		return fmt.Errorf("%w: discount_percent must be between 1 and 100, got %d", ErrInvalid, req.DiscountPercent)
	}
	return nil
}

func (s *service) CreatePromotion(ctx context.Context, req PromotionRequest) (*Promotion, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	p := &Promotion{
		Code:            NormaliseCode(req.Code),
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		ExpiresAt:       req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("promotion created", slog.String("code", p.Code), slog.Int("discount_percent", p.DiscountPercent))
	return p, nil
}

func (s *service) GetPromotion(ctx context.Context, code string) (*Promotion, error) {
	return s.repo.GetByCode(ctx, NormaliseCode(code))
}

func (s *service) FindPromotion(ctx context.Context, code string) (*Promotion, error) {
	return s.repo.GetByCode(ctx, NormaliseCode(code))
}

func (s *service) ListPromotions(ctx context.Context) ([]*Promotion, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdatePromotion(ctx context.Context, code string, req PromotionRequest) (*Promotion, error) {
	req.Code = code
	if err := validate(req); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByCode(ctx, NormaliseCode(code))
	if err != nil {
		return nil, err
	}
	p.Description = req.Description
	p.DiscountPercent = req.DiscountPercent
	p.ExpiresAt = req.ExpiresAt
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeletePromotion(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, NormaliseCode(code))
}
