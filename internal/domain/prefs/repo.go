package prefs

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads stored notification preferences.
type Repository interface {
	// GetByUser returns nil, nil when the user has no stored preferences;
	// callers fall back to Defaults.
	GetByUser(ctx context.Context, userID uuid.UUID) (*Preferences, error)
}
