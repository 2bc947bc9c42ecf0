package vitals

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

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Reading, error) {
	const q = `
		SELECT id, encounter_id, patient_id,
		       heart_rate, systolic_bp, diastolic_bp,
		       temperature, temperature_unit,
		       respiratory_rate, oxygen_saturation, glucose,
		       recorded_at
		FROM vital_readings
		WHERE id = $1`

	var rd Reading
	var unit *string
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&rd.ID, &rd.EncounterID, &rd.PatientID,
		&rd.HeartRate, &rd.SystolicBP, &rd.DiastolicBP,
		&rd.Temperature, &unit,
		&rd.RespiratoryRate, &rd.OxygenSaturation, &rd.Glucose,
		&rd.RecordedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying vital reading %s: %w", id, err)
	}
	if unit != nil {
		rd.TemperatureUnit = TemperatureUnit(*unit)
	}
	return &rd, nil
}
