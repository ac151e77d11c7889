package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

// Repository defines the persistence interface for patients. Every read and
// write is scoped to ownerID.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, ownerID uuid.UUID, name string, limit, offset int) ([]*Patient, int, error)
}
