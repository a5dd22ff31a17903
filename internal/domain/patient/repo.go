package patient

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	// Update applies u and returns the stored row, or ErrNotFound.
	Update(ctx context.Context, id string, u *Update) (*Patient, error)
	// Delete removes the row and returns it, or ErrNotFound.
	Delete(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context, order ListOrder) ([]*Patient, error)
	// DeleteAll truncates the table; used by seeding.
	DeleteAll(ctx context.Context) error
	Ping(ctx context.Context) error
}
