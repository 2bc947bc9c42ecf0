// Package notify provides the outbound notification channels used by the
// alert pipeline: SMTP email, Twilio SMS and Twilio WhatsApp.
package notify

import "context"

// Channel identifies a delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Severity classifies how urgent a notification is. Emergency severity
// bypasses quiet hours.
type Severity string

const (
	SeverityEmergency Severity = "emergency"
	SeverityCritical  Severity = "critical"
	SeverityWarning   Severity = "warning"
)

// EmailSender delivers an HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// SMSSender delivers a plain-text SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// WhatsAppSender delivers a WhatsApp message.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}
