// Package alert implements the two-stage vital-sign escalation workflow:
// a critical reading opens a pending session and asks the patient for
// consent; the patient's decision, or a timeout, escalates to the care
// team and completes the session.
package alert

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/inhealth/alertd/internal/domain/vitals"
	"github.com/inhealth/alertd/internal/platform/notify"
)

// Status is the session lifecycle state. pending is the sole initial
// state and completed the sole terminal state; the approved, declined and
// timeout states exist only between the transition and dispatch finishing.
type Status string

const (
	StatusPending        Status = "pending"
	StatusApprovedDoctor Status = "approved_doctor"
	StatusApprovedNurse  Status = "approved_nurse"
	StatusApprovedEMS    Status = "approved_ems"
	StatusApprovedAll    Status = "approved_all"
	StatusDeclined       Status = "declined"
	StatusTimeout        Status = "timeout"
	StatusCompleted      Status = "completed"
)

// Decision is a patient's answer to a consent request.
type Decision string

const (
	DecisionApproveDoctor Decision = "approve_doctor"
	DecisionApproveNurse  Decision = "approve_nurse"
	DecisionApproveEMS    Decision = "approve_ems"
	DecisionApproveAll    Decision = "approve_all"
	DecisionDecline       Decision = "decline"
)

// Valid reports whether d is a recognized decision.
func (d Decision) Valid() bool {
	switch d {
	case DecisionApproveDoctor, DecisionApproveNurse, DecisionApproveEMS,
		DecisionApproveAll, DecisionDecline:
		return true
	}
	return false
}

// ResponseMethod is the channel a patient response arrived through.
type ResponseMethod string

const (
	MethodWeb      ResponseMethod = "web"
	MethodEmail    ResponseMethod = "email"
	MethodSMS      ResponseMethod = "sms"
	MethodWhatsApp ResponseMethod = "whatsapp"
)

const DefaultTimeoutMinutes = 15

// Session is the durable record of one alert workflow instance. Exactly
// one session exists per triggering reading.
type Session struct {
	ID            uuid.UUID `json:"id"`
	ReadingID     uuid.UUID `json:"reading_id"`
	EncounterID   uuid.UUID `json:"encounter_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	ResponseToken string    `json:"-"`

	AlertType notify.Severity  `json:"alert_type"`
	Findings  []vitals.Finding `json:"findings"`

	TimeoutMinutes int    `json:"timeout_minutes"`
	Status         Status `json:"status"`

	WantsDoctor bool `json:"wants_doctor"`
	WantsNurse  bool `json:"wants_nurse"`
	WantsEMS    bool `json:"wants_ems"`

	PatientResponseTime   *time.Time     `json:"patient_response_time,omitempty"`
	PatientResponseMethod ResponseMethod `json:"patient_response_method,omitempty"`

	AutoEscalated      bool       `json:"auto_escalated"`
	AutoEscalationTime *time.Time `json:"auto_escalation_time,omitempty"`

	DoctorNotified      bool       `json:"doctor_notified"`
	NurseNotified       bool       `json:"nurse_notified"`
	EMSNotified         bool       `json:"ems_notified"`
	NotificationsSentAt *time.Time `json:"notifications_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) IsPending() bool {
	return s.Status == StatusPending
}

// Deadline is the instant at which a pending session becomes eligible for
// auto-escalation.
func (s *Session) Deadline() time.Time {
	return s.CreatedAt.Add(time.Duration(s.TimeoutMinutes) * time.Minute)
}

// TimedOut reports whether the session has reached its deadline. The
// boundary itself counts as timed out.
func (s *Session) TimedOut(now time.Time) bool {
	return !now.Before(s.Deadline())
}

// AlertTypeFor derives the session severity from its findings: emergency
// when any finding is blue, critical when any is red, warning otherwise.
func AlertTypeFor(findings []vitals.Finding) notify.Severity {
	severity := notify.SeverityWarning
	for _, f := range findings {
		switch f.Band {
		case vitals.BandBlue:
			return notify.SeverityEmergency
		case vitals.BandRed:
			severity = notify.SeverityCritical
		}
	}
	return severity
}

// NewToken returns an unguessable bearer token for response links.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// statusFor maps a decision to the transient status it produces.
func statusFor(d Decision) Status {
	switch d {
	case DecisionApproveDoctor:
		return StatusApprovedDoctor
	case DecisionApproveNurse:
		return StatusApprovedNurse
	case DecisionApproveEMS:
		return StatusApprovedEMS
	case DecisionApproveAll:
		return StatusApprovedAll
	default:
		return StatusDeclined
	}
}

// wantFlagsFor maps a decision to the intent flags it sets.
func wantFlagsFor(d Decision) (doctor, nurse, ems bool) {
	switch d {
	case DecisionApproveDoctor:
		return true, false, false
	case DecisionApproveNurse:
		return false, true, false
	case DecisionApproveEMS:
		return false, false, true
	case DecisionApproveAll:
		return true, true, true
	default:
		return false, false, false
	}
}
