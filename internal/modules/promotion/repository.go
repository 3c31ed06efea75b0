package promotion

import "context"

// Repository defines promotion data storage.
type Repository interface {
	Create(ctx context.Context, p *Promotion) error
	GetByCode(ctx context.Context, code string) (*Promotion, error)
	List(ctx context.Context) ([]*Promotion, error)
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, code string) error
}
