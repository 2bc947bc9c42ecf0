package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inhealth/alertd/internal/domain/directory"
	"github.com/inhealth/alertd/internal/domain/prefs"
	"github.com/inhealth/alertd/internal/platform/notify"
	"github.com/inhealth/alertd/internal/platform/telemetry"
)

// Directory is the recipient-resolution surface the dispatcher needs.
// directory.Repository satisfies it.
type Directory interface {
	PatientByID(ctx context.Context, id uuid.UUID) (*directory.Patient, error)
	EncounterByID(ctx context.Context, id uuid.UUID) (*directory.Encounter, error)
	ProviderForEncounter(ctx context.Context, encounterID uuid.UUID) (*directory.Provider, error)
	ActiveNurses(ctx context.Context, facilityID uuid.UUID, limit int) ([]directory.Nurse, error)
}

// PreferenceSource is the read-only preference oracle. prefs.Repository
// satisfies it.
type PreferenceSource interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*prefs.Preferences, error)
}

// DispatcherConfig carries the knobs dispatch needs, injected explicitly
// so the dispatcher has no reach into process-wide state.
type DispatcherConfig struct {
	BaseURL     string
	EMSEmail    string
	EMSPhone    string
	MaxNurses   int
	SendTimeout time.Duration
}

// Dispatcher fans alert notifications out to recipients over email, SMS
// and WhatsApp, applying each recipient's preferences.
type Dispatcher struct {
	dir      Directory
	prefs    PreferenceSource
	email    notify.EmailSender
	sms      notify.SMSSender
	whatsapp notify.WhatsAppSender
	cfg      DispatcherConfig
	logger   zerolog.Logger
	now      func() time.Time
}

func NewDispatcher(
	dir Directory,
	prefSource PreferenceSource,
	email notify.EmailSender,
	sms notify.SMSSender,
	whatsapp notify.WhatsAppSender,
	cfg DispatcherConfig,
	logger zerolog.Logger,
) *Dispatcher {
	if cfg.MaxNurses <= 0 {
		cfg.MaxNurses = 5
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		dir:      dir,
		prefs:    prefSource,
		email:    email,
		sms:      sms,
		whatsapp: whatsapp,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// recipient is one resolved notification target. A nil userID means no
// linked account, so delivery is best effort on every present channel.
type recipient struct {
	class    string
	name     string
	userID   *uuid.UUID
	contact  directory.Contact
	severity notify.Severity
}

// RequestConsent sends the patient-facing permission request on every
// channel with an address. Preferences are not consulted: the patient is
// the alert subject and must hear about their own critical vitals.
func (d *Dispatcher) RequestConsent(ctx context.Context, s *Session, patient *directory.Patient) []error {
	contact := patient.Contact()
	var errs []error

	if contact.Email != nil {
		body := consentEmailBody(s, patient.FullName, d.cfg.BaseURL)
		errs = append(errs, d.attempt(ctx, notify.ChannelEmail, *contact.Email,
			alertSubject(patient.FullName), body)...)
	}
	if contact.Phone != nil {
		body := consentSMSBody(s, patient.FullName, d.cfg.BaseURL, MethodSMS)
		errs = append(errs, d.attempt(ctx, notify.ChannelSMS, *contact.Phone, "", body)...)
	}
	if contact.WhatsApp != nil {
		body := consentSMSBody(s, patient.FullName, d.cfg.BaseURL, MethodWhatsApp)
		errs = append(errs, d.attempt(ctx, notify.ChannelWhatsApp, *contact.WhatsApp, "", body)...)
	}

	for _, err := range errs {
		d.logger.Warn().Err(err).Str("session_id", s.ID.String()).Msg("consent request delivery failure")
	}
	return errs
}

// Escalate notifies every recipient class the session's want-flags name
// and returns which classes had at least one successful delivery. Every
// failure is captured per attempt; none aborts the others.
func (d *Dispatcher) Escalate(ctx context.Context, s *Session) (DeliveryFlags, []error) {
	patientName := "the patient"
	if p, err := d.dir.PatientByID(ctx, s.PatientID); err != nil {
		d.logger.Error().Err(err).Str("patient_id", s.PatientID.String()).Msg("resolving patient for escalation")
	} else if p != nil {
		patientName = p.FullName
	}

	recipients := d.resolveRecipients(ctx, s)

	var (
		mu    sync.Mutex
		flags DeliveryFlags
		errs  []error
	)
	var wg sync.WaitGroup
	for _, rec := range recipients {
		rec := rec
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, recErrs := d.notifyRecipient(ctx, s, rec, patientName)
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, recErrs...)
			if ok {
				switch rec.class {
				case "doctor":
					flags.Doctor = true
				case "nurse":
					flags.Nurse = true
				case "ems":
					flags.EMS = true
				}
			}
		}()
	}
	wg.Wait()

	return flags, errs
}

func (d *Dispatcher) resolveRecipients(ctx context.Context, s *Session) []recipient {
	var recipients []recipient

	if s.WantsDoctor {
		provider, err := d.dir.ProviderForEncounter(ctx, s.EncounterID)
		switch {
		case err != nil:
			d.logger.Error().Err(err).Str("encounter_id", s.EncounterID.String()).Msg("resolving provider")
		case provider == nil:
			d.logger.Warn().Str("encounter_id", s.EncounterID.String()).Msg("no provider on encounter, skipping doctor notification")
		default:
			recipients = append(recipients, recipient{
				class:    "doctor",
				name:     "Dr. " + provider.FullName,
				userID:   provider.UserID,
				contact:  provider.Contact(),
				severity: s.AlertType,
			})
		}
	}

	if s.WantsNurse {
		recipients = append(recipients, d.resolveNurses(ctx, s)...)
	}

	if s.WantsEMS {
		// EMS contact comes from configuration and has no account;
		// EMS traffic is always emergency severity.
		ems := recipient{
			class:    "ems",
			name:     "EMS Dispatch",
			severity: notify.SeverityEmergency,
		}
		if d.cfg.EMSEmail != "" {
			e := d.cfg.EMSEmail
			ems.contact.Email = &e
		}
		if d.cfg.EMSPhone != "" {
			p := d.cfg.EMSPhone
			ems.contact.Phone = &p
		}
		if ems.contact.HasAny() {
			recipients = append(recipients, ems)
		} else {
			d.logger.Warn().Msg("EMS requested but no EMS contact configured")
		}
	}

	return recipients
}

func (d *Dispatcher) resolveNurses(ctx context.Context, s *Session) []recipient {
	enc, err := d.dir.EncounterByID(ctx, s.EncounterID)
	if err != nil {
		d.logger.Error().Err(err).Str("encounter_id", s.EncounterID.String()).Msg("resolving encounter for nurse lookup")
		return nil
	}
	if enc == nil {
		d.logger.Warn().Str("encounter_id", s.EncounterID.String()).Msg("encounter not found, skipping nurse notification")
		return nil
	}

	nurses, err := d.dir.ActiveNurses(ctx, enc.FacilityID, d.cfg.MaxNurses)
	if err != nil {
		d.logger.Error().Err(err).Str("facility_id", enc.FacilityID.String()).Msg("resolving nurses")
		return nil
	}
	if len(nurses) == 0 {
		d.logger.Warn().Str("facility_id", enc.FacilityID.String()).Msg("no active nurses at facility")
		return nil
	}

	recipients := make([]recipient, 0, len(nurses))
	for _, n := range nurses {
		recipients = append(recipients, recipient{
			class:    "nurse",
			name:     n.FullName,
			userID:   n.UserID,
			contact:  n.Contact(),
			severity: s.AlertType,
		})
	}
	return recipients
}

// notifyRecipient attempts every channel the recipient's preferences (or
// best-effort fallback) allow. Returns true when at least one channel
// succeeded.
func (d *Dispatcher) notifyRecipient(ctx context.Context, s *Session, rec recipient, patientName string) (bool, []error) {
	contact := rec.contact
	channels := d.allowedChannels(ctx, rec, &contact)

	var errs []error
	succeeded := false
	for _, ch := range channels {
		var attemptErrs []error
		switch ch {
		case notify.ChannelEmail:
			body := escalationEmailBody(s, rec.name, patientName)
			attemptErrs = d.attempt(ctx, ch, *contact.Email, alertSubject(patientName), body)
		case notify.ChannelSMS:
			attemptErrs = d.attempt(ctx, ch, *contact.Phone, "", escalationSMSBody(s, patientName))
		case notify.ChannelWhatsApp:
			attemptErrs = d.attempt(ctx, ch, *contact.WhatsApp, "", escalationSMSBody(s, patientName))
		}
		if len(attemptErrs) == 0 {
			succeeded = true
		} else {
			for _, err := range attemptErrs {
				d.logger.Warn().Err(err).
					Str("session_id", s.ID.String()).
					Str("recipient", rec.name).
					Str("channel", string(ch)).
					Msg("notification delivery failure")
			}
			errs = append(errs, attemptErrs...)
		}
	}
	return succeeded, errs
}

// allowedChannels filters the recipient's channels through their stored
// preferences. Recipients without accounts get every channel that has an
// address. The contact may be adjusted in place when preferences carry a
// dedicated WhatsApp number.
func (d *Dispatcher) allowedChannels(ctx context.Context, rec recipient, contact *directory.Contact) []notify.Channel {
	var p prefs.Preferences
	hasAccount := rec.userID != nil
	if hasAccount {
		stored, err := d.prefs.GetByUser(ctx, *rec.userID)
		switch {
		case err != nil:
			d.logger.Error().Err(err).Str("user_id", rec.userID.String()).Msg("loading preferences, falling back to defaults")
			p = prefs.Defaults(*rec.userID)
		case stored == nil:
			p = prefs.Defaults(*rec.userID)
		default:
			p = *stored
			if p.WhatsAppNumber != "" {
				n := p.WhatsAppNumber
				contact.WhatsApp = &n
			}
		}
	}

	var channels []notify.Channel
	at := d.now()
	add := func(ch notify.Channel, addr *string) {
		if addr == nil {
			return
		}
		if hasAccount && !p.Allows(ch, rec.severity, at) {
			return
		}
		channels = append(channels, ch)
	}
	add(notify.ChannelEmail, contact.Email)
	add(notify.ChannelSMS, contact.Phone)
	add(notify.ChannelWhatsApp, contact.WhatsApp)
	return channels
}

// attempt performs one bounded send on one channel. A timeout is a
// delivery failure for that channel, never fatal for the session.
func (d *Dispatcher) attempt(ctx context.Context, ch notify.Channel, addr, subject, body string) []error {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	var err error
	switch ch {
	case notify.ChannelEmail:
		err = d.email.SendEmail(sendCtx, addr, subject, body)
	case notify.ChannelSMS, notify.ChannelWhatsApp:
		var e164 string
		e164, err = notify.NormalizePhone(addr)
		if err == nil {
			if ch == notify.ChannelSMS {
				err = d.sms.SendSMS(sendCtx, e164, body)
			} else {
				err = d.whatsapp.SendWhatsApp(sendCtx, e164, body)
			}
		}
	}

	if err != nil {
		telemetry.Sends.WithLabelValues(string(ch), "error").Inc()
		return []error{fmt.Errorf("%s to %s: %w", ch, addr, err)}
	}
	telemetry.Sends.WithLabelValues(string(ch), "ok").Inc()
	return nil
}
