package prefs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inhealth/alertd/internal/platform/notify"
)

func clock(hour, min int) time.Time {
	return time.Date(2025, 6, 1, hour, min, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func TestAllows_ChannelAndSeverityGating(t *testing.T) {
	p := Preferences{
		Email: ChannelPolicy{Enabled: true, Emergency: true, Critical: true},
		SMS:   ChannelPolicy{Enabled: false, Emergency: true},
	}

	at := clock(12, 0)

	if !p.Allows(notify.ChannelEmail, notify.SeverityCritical, at) {
		t.Error("email critical should be allowed")
	}
	if p.Allows(notify.ChannelEmail, notify.SeverityWarning, at) {
		t.Error("email warning opt-out should block")
	}
	if p.Allows(notify.ChannelSMS, notify.SeverityEmergency, at) {
		t.Error("disabled channel blocks regardless of severity opt-in")
	}
	if p.Allows(notify.ChannelWhatsApp, notify.SeverityEmergency, at) {
		t.Error("zero-value whatsapp policy should block")
	}
}

func TestAllows_QuietHours(t *testing.T) {
	p := Preferences{
		Email:             ChannelPolicy{Enabled: true, Emergency: true, Critical: true, Warning: true},
		QuietHoursEnabled: true,
		QuietStart:        timePtr(clock(22, 0)),
		QuietEnd:          timePtr(clock(8, 0)),
	}

	// 23:30 is inside the overnight window.
	if p.Allows(notify.ChannelEmail, notify.SeverityCritical, clock(23, 30)) {
		t.Error("critical inside quiet hours should be suppressed")
	}
	// 03:00 still inside.
	if p.Allows(notify.ChannelEmail, notify.SeverityWarning, clock(3, 0)) {
		t.Error("warning inside quiet hours should be suppressed")
	}
	// Emergency bypasses quiet hours.
	if !p.Allows(notify.ChannelEmail, notify.SeverityEmergency, clock(23, 30)) {
		t.Error("emergency must bypass quiet hours")
	}
	// 12:00 is outside the window.
	if !p.Allows(notify.ChannelEmail, notify.SeverityCritical, clock(12, 0)) {
		t.Error("critical outside quiet hours should be allowed")
	}
	// Boundaries: start inclusive, end exclusive.
	if p.Allows(notify.ChannelEmail, notify.SeverityCritical, clock(22, 0)) {
		t.Error("quiet window start is inclusive")
	}
	if !p.Allows(notify.ChannelEmail, notify.SeverityCritical, clock(8, 0)) {
		t.Error("quiet window end is exclusive")
	}
}

func TestAllows_SameDayQuietWindow(t *testing.T) {
	p := Preferences{
		Email:             ChannelPolicy{Enabled: true, Critical: true},
		QuietHoursEnabled: true,
		QuietStart:        timePtr(clock(13, 0)),
		QuietEnd:          timePtr(clock(15, 0)),
	}

	if p.Allows(notify.ChannelEmail, notify.SeverityCritical, clock(14, 0)) {
		t.Error("inside same-day window should be suppressed")
	}
	if !p.Allows(notify.ChannelEmail, notify.SeverityCritical, clock(16, 0)) {
		t.Error("after same-day window should be allowed")
	}
	if !p.Allows(notify.ChannelEmail, notify.SeverityCritical, clock(2, 0)) {
		t.Error("before same-day window should be allowed")
	}
}

func TestAllows_QuietHoursWithoutWindow(t *testing.T) {
	p := Preferences{
		Email:             ChannelPolicy{Enabled: true, Critical: true},
		QuietHoursEnabled: true,
	}
	if !p.Allows(notify.ChannelEmail, notify.SeverityCritical, clock(23, 0)) {
		t.Error("quiet hours without a configured window must not suppress")
	}
}

func TestDefaults(t *testing.T) {
	uid := uuid.New()
	d := Defaults(uid)

	if d.UserID != uid {
		t.Errorf("user id = %s", d.UserID)
	}
	at := clock(12, 0)
	if !d.Allows(notify.ChannelEmail, notify.SeverityWarning, at) {
		t.Error("default email policy covers every severity")
	}
	if d.Allows(notify.ChannelSMS, notify.SeverityEmergency, at) {
		t.Error("sms is off by default")
	}
	if d.Allows(notify.ChannelWhatsApp, notify.SeverityEmergency, at) {
		t.Error("whatsapp is off by default")
	}
}
