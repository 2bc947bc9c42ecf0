package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) PatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	const q = `
		SELECT id, user_id, full_name, COALESCE(email, ''), COALESCE(phone, '')
		FROM patients
		WHERE id = $1`

	var p Patient
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &p.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying patient %s: %w", id, err)
	}
	return &p, nil
}

func (r *pgRepository) EncounterByID(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	const q = `
		SELECT id, patient_id, provider_id, facility_id
		FROM encounters
		WHERE id = $1`

	var e Encounter
	err := r.pool.QueryRow(ctx, q, id).Scan(&e.ID, &e.PatientID, &e.ProviderID, &e.FacilityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying encounter %s: %w", id, err)
	}
	return &e, nil
}

func (r *pgRepository) ProviderForEncounter(ctx context.Context, encounterID uuid.UUID) (*Provider, error) {
	const q = `
		SELECT p.id, p.user_id, p.full_name, COALESCE(p.email, ''), COALESCE(p.phone, ''), p.facility_id
		FROM providers p
		JOIN encounters e ON e.provider_id = p.id
		WHERE e.id = $1`

	var p Provider
	err := r.pool.QueryRow(ctx, q, encounterID).Scan(
		&p.ID, &p.UserID, &p.FullName, &p.Email, &p.Phone, &p.FacilityID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying provider for encounter %s: %w", encounterID, err)
	}
	return &p, nil
}

func (r *pgRepository) ActiveNurses(ctx context.Context, facilityID uuid.UUID, limit int) ([]Nurse, error) {
	const q = `
		SELECT id, user_id, full_name, COALESCE(email, ''), COALESCE(phone, ''), facility_id, active
		FROM nurses
		WHERE facility_id = $1 AND active
		ORDER BY full_name
		LIMIT $2`

	rows, err := r.pool.Query(ctx, q, facilityID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying nurses for facility %s: %w", facilityID, err)
	}
	defer rows.Close()

	var nurses []Nurse
	for rows.Next() {
		var n Nurse
		if err := rows.Scan(&n.ID, &n.UserID, &n.FullName, &n.Email, &n.Phone, &n.FacilityID, &n.Active); err != nil {
			return nil, fmt.Errorf("scanning nurse row: %w", err)
		}
		nurses = append(nurses, n)
	}
	return nurses, rows.Err()
}
