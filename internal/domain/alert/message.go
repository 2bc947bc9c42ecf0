package alert

import (
	"fmt"
	"html"
	"strings"

	"github.com/inhealth/alertd/internal/platform/notify"
)

// smsFindingCap bounds SMS length; remaining findings are referred to the
// email copy.
const smsFindingCap = 3

func alertEmoji(sev notify.Severity) string {
	if sev == notify.SeverityEmergency || sev == notify.SeverityCritical {
		return "\U0001F6A8" // 🚨
	}
	return "⚠️"
}

func severityMarker(band string) string {
	switch band {
	case "blue":
		return "[LIFE-THREATENING]"
	case "red":
		return "[CRITICAL]"
	default:
		return "[WARNING]"
	}
}

// actionLink builds one tokenized decision URL. The method query marker
// records which channel the response came in through.
func actionLink(baseURL, token string, d Decision, method ResponseMethod) string {
	return fmt.Sprintf("%s/alerts/respond/%s/%s?method=%s", baseURL, token, d, method)
}

// responseFormLink points at the channel-agnostic response page.
func responseFormLink(baseURL, token string) string {
	return fmt.Sprintf("%s/alerts/respond/%s", baseURL, token)
}

func alertSubject(patientName string) string {
	return fmt.Sprintf("\U0001F6A8 Critical Vital Signs Alert - %s", patientName)
}

// consentEmailBody renders the patient-facing permission request with one
// action link per decision.
func consentEmailBody(s *Session, patientName, baseURL string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>%s Critical Vital Signs Detected</h2>", alertEmoji(s.AlertType))
	fmt.Fprintf(&b, "<p>Hello %s, the following readings need your attention:</p>", html.EscapeString(patientName))
	b.WriteString("<ul>")
	for _, f := range s.Findings {
		fmt.Fprintf(&b, "<li><strong>%s</strong>: %s %s (%s)</li>",
			html.EscapeString(f.Metric), html.EscapeString(f.Value),
			severityMarker(string(f.Band)), html.EscapeString(f.ContactLevel))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Would you like us to notify your care team? If we do not hear from you within %d minutes, we will notify them automatically.</p>", s.TimeoutMinutes)
	b.WriteString("<p>")
	links := []struct {
		label    string
		decision Decision
	}{
		{"Notify my doctor", DecisionApproveDoctor},
		{"Notify a nurse", DecisionApproveNurse},
		{"Call EMS", DecisionApproveEMS},
		{"Notify everyone", DecisionApproveAll},
		{"I'm OK, no help needed", DecisionDecline},
	}
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s">%s</a><br>`, actionLink(baseURL, s.ResponseToken, l.decision, MethodEmail), l.label)
	}
	b.WriteString("</p></body></html>")
	return b.String()
}

// consentSMSBody is the short permission request pointing at the response
// page rather than carrying five links.
func consentSMSBody(s *Session, patientName, baseURL string, method ResponseMethod) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s InHealth Alert: Critical vitals for %s. ", alertEmoji(s.AlertType), patientName)
	for i, f := range s.Findings {
		if i == smsFindingCap {
			break
		}
		fmt.Fprintf(&b, "%s: %s (%s). ", f.Metric, f.Value, f.ContactLevel)
	}
	fmt.Fprintf(&b, "Reply within %d min or your care team is notified automatically: %s?method=%s",
		s.TimeoutMinutes, responseFormLink(baseURL, s.ResponseToken), method)
	return b.String()
}

// escalationEmailBody renders the care-team notification.
func escalationEmailBody(s *Session, recipientName, patientName string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>%s Critical Vital Signs Alert</h2>", alertEmoji(s.AlertType))
	fmt.Fprintf(&b, "<p>Hello %s,</p>", html.EscapeString(recipientName))
	fmt.Fprintf(&b, "<p>Patient <strong>%s</strong> has critical vital signs:</p>", html.EscapeString(patientName))
	b.WriteString("<ul>")
	for _, f := range s.Findings {
		fmt.Fprintf(&b, "<li><strong>%s</strong>: %s %s (%s)</li>",
			html.EscapeString(f.Metric), html.EscapeString(f.Value),
			severityMarker(string(f.Band)), html.EscapeString(f.ContactLevel))
	}
	b.WriteString("</ul>")
	if s.AutoEscalated {
		b.WriteString("<p>The patient did not respond within the alert window; this notification was escalated automatically.</p>")
	} else {
		b.WriteString("<p>The patient asked for their care team to be notified.</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// escalationSMSBody caps findings to keep inside SMS length limits.
func escalationSMSBody(s *Session, patientName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s InHealth Alert: Critical vitals for %s. ", alertEmoji(s.AlertType), patientName)
	for i, f := range s.Findings {
		if i == smsFindingCap {
			break
		}
		fmt.Fprintf(&b, "%s: %s (%s). ", f.Metric, f.Value, f.ContactLevel)
	}
	b.WriteString("Please check your email for details.")
	return b.String()
}
