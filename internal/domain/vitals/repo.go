package vitals

import (
	"context"

	"github.com/google/uuid"
)

// Repository loads readings for alert evaluation.
type Repository interface {
	// GetByID returns nil, nil when no reading exists with the id.
	GetByID(ctx context.Context, id uuid.UUID) (*Reading, error)
}
