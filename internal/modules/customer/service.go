package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Service defines customer account operations.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Customer, error)
	Login(ctx context.Context, req LoginRequest) (*Token, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
	// ParseToken returns the customer id a token was issued for.
	ParseToken(token string) (uuid.UUID, error)
}

type service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger
}

func NewService(repo Repository, secret string, ttl time.Duration, log *slog.Logger) Service {
	return &service{
		repo:   repo,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		log:    logger.WithComponent(log, "customer_service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Customer, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCustomer)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email %q is not valid", ErrInvalidCustomer, req.Email)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidCustomer, minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c := &Customer{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("customer registered", slog.String("customer_id", c.ID.String()))
	return c, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Token, error) {
	c, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, ErrCustomerNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := &jwt.StandardClaims{
		Subject:   c.ID.String(),
		IssuedAt:  issuedAt.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

func (s *service) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ParseToken(token string) (uuid.UUID, error) {
	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
