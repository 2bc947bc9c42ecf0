package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inhealth/alertd/internal/domain/vitals"
	"github.com/inhealth/alertd/internal/platform/telemetry"
)

// ErrInvalidDecision is returned for a decision outside the recognized set.
var ErrInvalidDecision = errors.New("unrecognized decision")

// SessionOutcome is the result of applying a response to a session.
// Accepted is false both for unknown tokens and for sessions already past
// pending; callers must not distinguish the two in user-visible output.
type SessionOutcome struct {
	Accepted bool
	Status   Status
	Session  *Session
}

// SweepReport summarizes one timeout sweep.
type SweepReport struct {
	Checked   int      `json:"checked"`
	Escalated int      `json:"escalated"`
	Errors    []string `json:"errors,omitempty"`
}

// Service drives the alert workflow: opening sessions for critical
// readings, routing patient consent, and sweeping timed-out sessions.
type Service struct {
	sessions       Repository
	readings       vitals.Repository
	dir            Directory
	dispatcher     *Dispatcher
	timeoutMinutes int
	logger         zerolog.Logger
	now            func() time.Time
}

func NewService(
	sessions Repository,
	readings vitals.Repository,
	dir Directory,
	dispatcher *Dispatcher,
	timeoutMinutes int,
	logger zerolog.Logger,
) *Service {
	if timeoutMinutes <= 0 {
		timeoutMinutes = DefaultTimeoutMinutes
	}
	return &Service{
		sessions:       sessions,
		readings:       readings,
		dir:            dir,
		dispatcher:     dispatcher,
		timeoutMinutes: timeoutMinutes,
		logger:         logger,
		now:            time.Now,
	}
}

// OpenSession evaluates the reading and, when it has critical findings,
// creates the pending session and asks the patient for consent. Returns
// nil, nil for normal readings. Opening is idempotent per reading: a
// second call returns the existing session untouched.
func (s *Service) OpenSession(ctx context.Context, reading *vitals.Reading) (*Session, error) {
	findings := vitals.Evaluate(*reading)
	if len(findings) == 0 {
		return nil, nil
	}

	if existing, err := s.sessions.GetByReading(ctx, reading.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	token, err := NewToken()
	if err != nil {
		return nil, fmt.Errorf("generating response token: %w", err)
	}

	session := &Session{
		ID:             uuid.New(),
		ReadingID:      reading.ID,
		EncounterID:    reading.EncounterID,
		PatientID:      reading.PatientID,
		ResponseToken:  token,
		AlertType:      AlertTypeFor(findings),
		Findings:       findings,
		TimeoutMinutes: s.timeoutMinutes,
		Status:         StatusPending,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, ErrDuplicateReading) {
			return s.sessions.GetByReading(ctx, reading.ID)
		}
		return nil, err
	}

	telemetry.SessionsOpened.WithLabelValues(string(session.AlertType)).Inc()
	s.logger.Info().
		Str("session_id", session.ID.String()).
		Str("patient_id", session.PatientID.String()).
		Str("alert_type", string(session.AlertType)).
		Int("findings", len(session.Findings)).
		Msg("alert session opened")

	patient, err := s.dir.PatientByID(ctx, session.PatientID)
	switch {
	case err != nil:
		s.logger.Error().Err(err).Str("patient_id", session.PatientID.String()).Msg("resolving patient for consent request")
	case patient == nil:
		s.logger.Warn().Str("patient_id", session.PatientID.String()).Msg("patient not found, consent request not sent")
	default:
		// Consent delivery failures are logged inside the dispatcher;
		// the sweeper guarantees escalation even if no request lands.
		s.dispatcher.RequestConsent(ctx, session, patient)
	}

	return session, nil
}

// OpenSessionForReading loads the reading and opens a session for it.
// Returns nil, nil when the reading does not exist or is not critical.
func (s *Service) OpenSessionForReading(ctx context.Context, readingID uuid.UUID) (*Session, error) {
	reading, err := s.readings.GetByID(ctx, readingID)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, nil
	}
	return s.OpenSession(ctx, reading)
}

// Respond applies a patient decision to the session behind the token.
// Already-resolved sessions and unknown tokens both come back with
// Accepted set to false and no side effects, which makes link replay and
// double submission safe.
func (s *Service) Respond(ctx context.Context, token string, decision Decision, method ResponseMethod) (SessionOutcome, error) {
	if !decision.Valid() {
		return SessionOutcome{}, ErrInvalidDecision
	}
	if method == "" {
		method = MethodWeb
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return SessionOutcome{}, err
	}
	if session == nil {
		return SessionOutcome{Accepted: false}, nil
	}
	if !session.IsPending() {
		return SessionOutcome{Accepted: false, Status: session.Status, Session: session}, nil
	}

	respondedAt := s.now().UTC()
	wantsDoctor, wantsNurse, wantsEMS := wantFlagsFor(decision)
	transition := Transition{
		Status:         statusFor(decision),
		WantsDoctor:    wantsDoctor,
		WantsNurse:     wantsNurse,
		WantsEMS:       wantsEMS,
		ResponseTime:   &respondedAt,
		ResponseMethod: method,
	}

	ok, err := s.sessions.TransitionFromPending(ctx, session.ID, transition)
	if err != nil {
		return SessionOutcome{}, err
	}
	if !ok {
		// The sweeper or another response won the race.
		current, err := s.sessions.GetByID(ctx, session.ID)
		if err != nil {
			return SessionOutcome{}, err
		}
		return SessionOutcome{Accepted: false, Status: current.Status, Session: current}, nil
	}

	session.Status = transition.Status
	session.WantsDoctor = wantsDoctor
	session.WantsNurse = wantsNurse
	session.WantsEMS = wantsEMS
	session.PatientResponseTime = &respondedAt
	session.PatientResponseMethod = method

	telemetry.Responses.WithLabelValues(string(decision)).Inc()
	s.logger.Info().
		Str("session_id", session.ID.String()).
		Str("decision", string(decision)).
		Str("method", string(method)).
		Msg("patient response recorded")

	if decision == DecisionDecline {
		if err := s.sessions.MarkCompleted(ctx, session.ID, DeliveryFlags{}, nil); err != nil {
			return SessionOutcome{}, err
		}
		session.Status = StatusCompleted
		return SessionOutcome{Accepted: true, Status: session.Status, Session: session}, nil
	}

	telemetry.Escalations.WithLabelValues("response").Inc()
	if err := s.escalateAndComplete(ctx, session); err != nil {
		return SessionOutcome{}, err
	}
	return SessionOutcome{Accepted: true, Status: session.Status, Session: session}, nil
}

// Sweep escalates every pending session past its deadline. Sessions are
// processed independently; a failure on one is reported and the sweep
// moves on. In dry-run mode nothing is mutated.
func (s *Service) Sweep(ctx context.Context, now time.Time, dryRun bool) (SweepReport, error) {
	started := time.Now()
	defer func() {
		telemetry.SweepDuration.Observe(time.Since(started).Seconds())
	}()

	pending, err := s.sessions.ListPending(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("listing pending sessions: %w", err)
	}

	report := SweepReport{Checked: len(pending)}
	for i := range pending {
		session := pending[i]
		if !session.TimedOut(now) {
			continue
		}
		if dryRun {
			report.Escalated++
			continue
		}
		if err := s.escalateTimedOut(ctx, &session, now); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("session %s: %v", session.ID, err))
			continue
		}
		report.Escalated++
	}
	return report, nil
}

func (s *Service) escalateTimedOut(ctx context.Context, session *Session, now time.Time) error {
	escalatedAt := now.UTC()
	transition := Transition{
		Status: StatusTimeout,
		// An unanswered alert notifies everyone; silence is the riskiest
		// signal in this context.
		WantsDoctor:        true,
		WantsNurse:         true,
		WantsEMS:           true,
		AutoEscalated:      true,
		AutoEscalationTime: &escalatedAt,
	}

	ok, err := s.sessions.TransitionFromPending(ctx, session.ID, transition)
	if err != nil {
		return err
	}
	if !ok {
		// A response landed between the scan and the update.
		return nil
	}

	session.Status = StatusTimeout
	session.WantsDoctor = true
	session.WantsNurse = true
	session.WantsEMS = true
	session.AutoEscalated = true
	session.AutoEscalationTime = &escalatedAt

	telemetry.Escalations.WithLabelValues("timeout").Inc()
	s.logger.Info().
		Str("session_id", session.ID.String()).
		Time("deadline", session.Deadline()).
		Msg("alert session auto-escalated on timeout")

	return s.escalateAndComplete(ctx, session)
}

// escalateAndComplete runs dispatch and freezes the session. Dispatch is
// attempted before completed status is written.
func (s *Service) escalateAndComplete(ctx context.Context, session *Session) error {
	flags, errs := s.dispatcher.Escalate(ctx, session)
	for _, err := range errs {
		s.logger.Warn().Err(err).Str("session_id", session.ID.String()).Msg("escalation delivery failure")
	}

	sentAt := s.now().UTC()
	if err := s.sessions.MarkCompleted(ctx, session.ID, flags, &sentAt); err != nil {
		return fmt.Errorf("completing session: %w", err)
	}

	session.Status = StatusCompleted
	session.DoctorNotified = flags.Doctor
	session.NurseNotified = flags.Nurse
	session.EMSNotified = flags.EMS
	session.NotificationsSentAt = &sentAt
	return nil
}

// GetByID returns the session or nil when absent.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.sessions.GetByID(ctx, id)
}

// GetByToken returns the session behind a response token, nil when the
// token matches nothing.
func (s *Service) GetByToken(ctx context.Context, token string) (*Session, error) {
	return s.sessions.GetByToken(ctx, token)
}

// List returns sessions newest first with the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Session, int, error) {
	return s.sessions.List(ctx, limit, offset)
}
