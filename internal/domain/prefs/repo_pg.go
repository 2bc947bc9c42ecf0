package prefs

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

func (r *pgRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*Preferences, error) {
	const q = `
		SELECT user_id,
		       email_enabled, email_emergency, email_critical, email_warning,
		       sms_enabled, sms_emergency, sms_critical, sms_warning,
		       whatsapp_enabled, whatsapp_emergency, whatsapp_critical, whatsapp_warning,
		       whatsapp_number,
		       quiet_hours_enabled, quiet_start, quiet_end,
		       digest_mode, digest_frequency_hours,
		       created_at, updated_at
		FROM notification_preferences
		WHERE user_id = $1`

	var p Preferences
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&p.UserID,
		&p.Email.Enabled, &p.Email.Emergency, &p.Email.Critical, &p.Email.Warning,
		&p.SMS.Enabled, &p.SMS.Emergency, &p.SMS.Critical, &p.SMS.Warning,
		&p.WhatsApp.Enabled, &p.WhatsApp.Emergency, &p.WhatsApp.Critical, &p.WhatsApp.Warning,
		&p.WhatsAppNumber,
		&p.QuietHoursEnabled, &p.QuietStart, &p.QuietEnd,
		&p.DigestMode, &p.DigestFrequencyHours,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying preferences for user %s: %w", userID, err)
	}
	return &p, nil
}
