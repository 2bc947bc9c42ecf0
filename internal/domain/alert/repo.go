package alert

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateReading is returned by Create when a session already exists
// for the reading.
var ErrDuplicateReading = errors.New("alert session already exists for reading")

// Transition is the set of fields an atomic pending-state transition
// writes alongside the new status.
type Transition struct {
	Status Status

	WantsDoctor bool
	WantsNurse  bool
	WantsEMS    bool

	ResponseTime   *time.Time
	ResponseMethod ResponseMethod

	AutoEscalated      bool
	AutoEscalationTime *time.Time
}

// DeliveryFlags records which recipient classes had at least one
// successful send.
type DeliveryFlags struct {
	Doctor bool
	Nurse  bool
	EMS    bool
}

// Repository persists alert sessions. Lookups return nil, nil when no
// session matches.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetByToken(ctx context.Context, token string) (*Session, error)
	GetByReading(ctx context.Context, readingID uuid.UUID) (*Session, error)

	// List returns sessions newest first, plus the total count.
	List(ctx context.Context, limit, offset int) ([]Session, int, error)

	// ListPending returns sessions still awaiting a response or timeout.
	ListPending(ctx context.Context) ([]Session, error)

	// TransitionFromPending applies t only if the session is still
	// pending, as one atomic conditional update. Returns false when
	// another writer got there first.
	TransitionFromPending(ctx context.Context, id uuid.UUID, t Transition) (bool, error)

	// MarkCompleted freezes the session with its delivery outcome.
	MarkCompleted(ctx context.Context, id uuid.UUID, flags DeliveryFlags, sentAt *time.Time) error
}
