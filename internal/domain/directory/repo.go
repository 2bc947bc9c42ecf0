package directory

import (
	"context"

	"github.com/google/uuid"
)

// Repository resolves alert recipients. Every lookup returns nil, nil when
// the record does not exist.
type Repository interface {
	PatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	EncounterByID(ctx context.Context, id uuid.UUID) (*Encounter, error)
	// ProviderForEncounter resolves the doctor on the encounter, nil when
	// the encounter has no provider assigned.
	ProviderForEncounter(ctx context.Context, encounterID uuid.UUID) (*Provider, error)
	// ActiveNurses lists up to limit on-duty nurses at the facility.
	ActiveNurses(ctx context.Context, facilityID uuid.UUID, limit int) ([]Nurse, error)
}
