// Package prefs holds per-user notification preferences. The alert
// pipeline reads these as a policy oracle and never mutates them.
package prefs

import (
	"time"

	"github.com/google/uuid"
	"github.com/inhealth/alertd/internal/platform/notify"
)

// ChannelPolicy is one channel's enablement crossed with per-severity
// opt-ins.
type ChannelPolicy struct {
	Enabled   bool `json:"enabled"`
	Emergency bool `json:"emergency"`
	Critical  bool `json:"critical"`
	Warning   bool `json:"warning"`
}

func (p ChannelPolicy) allows(sev notify.Severity) bool {
	if !p.Enabled {
		return false
	}
	switch sev {
	case notify.SeverityEmergency:
		return p.Emergency
	case notify.SeverityCritical:
		return p.Critical
	case notify.SeverityWarning:
		return p.Warning
	default:
		return false
	}
}

// Preferences is one user's notification policy.
type Preferences struct {
	UserID uuid.UUID `json:"user_id"`

	Email    ChannelPolicy `json:"email"`
	SMS      ChannelPolicy `json:"sms"`
	WhatsApp ChannelPolicy `json:"whatsapp"`

	// WhatsAppNumber overrides the directory phone for WhatsApp delivery.
	WhatsAppNumber string `json:"whatsapp_number,omitempty"`

	QuietHoursEnabled bool       `json:"quiet_hours_enabled"`
	QuietStart        *time.Time `json:"quiet_start,omitempty"`
	QuietEnd          *time.Time `json:"quiet_end,omitempty"`

	DigestMode           bool `json:"digest_mode"`
	DigestFrequencyHours int  `json:"digest_frequency_hours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults returns the policy applied to users without a stored row:
// email on for every severity, SMS and WhatsApp off, no quiet hours.
func Defaults(userID uuid.UUID) Preferences {
	return Preferences{
		UserID: userID,
		Email: ChannelPolicy{
			Enabled: true, Emergency: true, Critical: true, Warning: true,
		},
		SMS: ChannelPolicy{
			Emergency: true, Critical: true,
		},
		WhatsApp: ChannelPolicy{
			Emergency: true, Critical: true,
		},
		DigestFrequencyHours: 24,
	}
}

// Allows reports whether a notification of the given severity may go out
// on the given channel at the given time. Emergency severity bypasses
// quiet hours.
func (p Preferences) Allows(ch notify.Channel, sev notify.Severity, at time.Time) bool {
	var policy ChannelPolicy
	switch ch {
	case notify.ChannelEmail:
		policy = p.Email
	case notify.ChannelSMS:
		policy = p.SMS
	case notify.ChannelWhatsApp:
		policy = p.WhatsApp
	default:
		return false
	}

	if !policy.allows(sev) {
		return false
	}
	if sev != notify.SeverityEmergency && p.inQuietHours(at) {
		return false
	}
	return true
}

// inQuietHours checks whether the clock time of at falls inside the quiet
// window. Windows may cross midnight (22:00 to 08:00).
func (p Preferences) inQuietHours(at time.Time) bool {
	if !p.QuietHoursEnabled || p.QuietStart == nil || p.QuietEnd == nil {
		return false
	}

	toMinutes := func(t time.Time) int { return t.Hour()*60 + t.Minute() }
	now := toMinutes(at)
	start := toMinutes(*p.QuietStart)
	end := toMinutes(*p.QuietEnd)

	if start == end {
		return false
	}
	if start < end {
		return now >= start && now < end
	}
	// Overnight window.
	return now >= start || now < end
}
