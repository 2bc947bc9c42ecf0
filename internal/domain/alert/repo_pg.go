package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const sessionColumns = `
	id, reading_id, encounter_id, patient_id, response_token,
	alert_type, findings, timeout_minutes, status,
	wants_doctor, wants_nurse, wants_ems,
	patient_response_time, patient_response_method,
	auto_escalated, auto_escalation_time,
	doctor_notified, nurse_notified, ems_notified, notifications_sent_at,
	created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, s *Session) error {
	findings, err := json.Marshal(s.Findings)
	if err != nil {
		return fmt.Errorf("encoding findings: %w", err)
	}

	const q = `
		INSERT INTO alert_sessions (
			id, reading_id, encounter_id, patient_id, response_token,
			alert_type, findings, timeout_minutes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	_, err = r.pool.Exec(ctx, q,
		s.ID, s.ReadingID, s.EncounterID, s.PatientID, s.ResponseToken,
		s.AlertType, findings, s.TimeoutMinutes, s.Status, s.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on the one-session-per-reading index.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateReading
		}
		return fmt.Errorf("inserting alert session: %w", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *pgRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	return r.getOne(ctx, "response_token = $1", token)
}

func (r *pgRepository) GetByReading(ctx context.Context, readingID uuid.UUID) (*Session, error) {
	return r.getOne(ctx, "reading_id = $1", readingID)
}

func (r *pgRepository) getOne(ctx context.Context, where string, arg any) (*Session, error) {
	q := fmt.Sprintf("SELECT %s FROM alert_sessions WHERE %s", sessionColumns, where)

	row := r.pool.QueryRow(ctx, q, arg)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying alert session: %w", err)
	}
	return s, nil
}

func (r *pgRepository) List(ctx context.Context, limit, offset int) ([]Session, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM alert_sessions").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting alert sessions: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT %s FROM alert_sessions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, sessionColumns)

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing alert sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := collectSessions(rows)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *pgRepository) ListPending(ctx context.Context) ([]Session, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM alert_sessions
		WHERE status = $1 AND NOT auto_escalated
		ORDER BY created_at`, sessionColumns)

	rows, err := r.pool.Query(ctx, q, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending alert sessions: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows)
}

// TransitionFromPending races response and sweeper via a single
// conditional UPDATE. Exactly one caller observes a row change.
func (r *pgRepository) TransitionFromPending(ctx context.Context, id uuid.UUID, t Transition) (bool, error) {
	const q = `
		UPDATE alert_sessions
		SET status = $2,
		    wants_doctor = $3, wants_nurse = $4, wants_ems = $5,
		    patient_response_time = $6, patient_response_method = $7,
		    auto_escalated = $8, auto_escalation_time = $9,
		    updated_at = now()
		WHERE id = $1 AND status = $10`

	tag, err := r.pool.Exec(ctx, q,
		id, t.Status,
		t.WantsDoctor, t.WantsNurse, t.WantsEMS,
		t.ResponseTime, nullableMethod(t.ResponseMethod),
		t.AutoEscalated, t.AutoEscalationTime,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("transitioning alert session %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgRepository) MarkCompleted(ctx context.Context, id uuid.UUID, flags DeliveryFlags, sentAt *time.Time) error {
	const q = `
		UPDATE alert_sessions
		SET status = $2,
		    doctor_notified = $3, nurse_notified = $4, ems_notified = $5,
		    notifications_sent_at = $6,
		    updated_at = now()
		WHERE id = $1`

	_, err := r.pool.Exec(ctx, q, id, StatusCompleted, flags.Doctor, flags.Nurse, flags.EMS, sentAt)
	if err != nil {
		return fmt.Errorf("completing alert session %s: %w", id, err)
	}
	return nil
}

func nullableMethod(m ResponseMethod) *string {
	if m == "" {
		return nil
	}
	s := string(m)
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var s Session
	var findings []byte
	var method *string

	err := row.Scan(
		&s.ID, &s.ReadingID, &s.EncounterID, &s.PatientID, &s.ResponseToken,
		&s.AlertType, &findings, &s.TimeoutMinutes, &s.Status,
		&s.WantsDoctor, &s.WantsNurse, &s.WantsEMS,
		&s.PatientResponseTime, &method,
		&s.AutoEscalated, &s.AutoEscalationTime,
		&s.DoctorNotified, &s.NurseNotified, &s.EMSNotified, &s.NotificationsSentAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(findings) > 0 {
		if err := json.Unmarshal(findings, &s.Findings); err != nil {
			return nil, fmt.Errorf("decoding findings: %w", err)
		}
	}
	if method != nil {
		s.PatientResponseMethod = ResponseMethod(*method)
	}
	return &s, nil
}

func collectSessions(rows pgx.Rows) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning alert session row: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
