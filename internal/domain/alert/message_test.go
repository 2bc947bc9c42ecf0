package alert

import (
	"strings"
	"testing"

	"github.com/inhealth/alertd/internal/domain/vitals"
	"github.com/inhealth/alertd/internal/platform/notify"
)

func manyFindings(n int) []vitals.Finding {
	findings := make([]vitals.Finding, n)
	for i := range findings {
		findings[i] = vitals.Finding{
			Metric:       "Heart Rate",
			Value:        "182",
			Band:         vitals.BandBlue,
			ContactLevel: "call emergency services immediately",
		}
	}
	return findings
}

func TestEscalationSMSBody_CapsFindings(t *testing.T) {
	s := &Session{
		AlertType: notify.SeverityEmergency,
		Findings:  manyFindings(6),
	}

	body := escalationSMSBody(s, "Jane Roe")
	if got := strings.Count(body, "Heart Rate:"); got != 3 {
		t.Errorf("sms carries %d findings, want capped at 3", got)
	}
	if !strings.Contains(body, "InHealth Alert") {
		t.Error("sms must carry the InHealth Alert prefix")
	}
	if !strings.Contains(body, "Jane Roe") {
		t.Error("sms must name the patient")
	}
	if !strings.Contains(body, "check your email") {
		t.Error("sms must refer to email for the full picture")
	}
}

func TestEscalationSMSBody_EmojiBySeverity(t *testing.T) {
	for _, sev := range []notify.Severity{notify.SeverityEmergency, notify.SeverityCritical} {
		body := escalationSMSBody(&Session{AlertType: sev, Findings: manyFindings(1)}, "X")
		if !strings.HasPrefix(body, "\U0001F6A8") {
			t.Errorf("%s sms should lead with the siren emoji", sev)
		}
	}
	warning := escalationSMSBody(&Session{AlertType: notify.SeverityWarning, Findings: manyFindings(1)}, "X")
	if !strings.HasPrefix(warning, "⚠") {
		t.Error("warning sms should lead with the warning emoji")
	}
}

func TestConsentEmailBody_LinksAndEscaping(t *testing.T) {
	s := &Session{
		ResponseToken:  "tok123",
		AlertType:      notify.SeverityCritical,
		TimeoutMinutes: 15,
		Findings: []vitals.Finding{
			{Metric: "Blood Glucose", Value: "55 mg/dL", Band: vitals.BandRed, ContactLevel: "notify doctor immediately"},
		},
	}

	body := consentEmailBody(s, "Jane <Roe>", "https://alerts.example.com")

	for _, d := range []Decision{DecisionApproveDoctor, DecisionApproveNurse, DecisionApproveEMS, DecisionApproveAll, DecisionDecline} {
		want := "https://alerts.example.com/alerts/respond/tok123/" + string(d) + "?method=email"
		if !strings.Contains(body, want) {
			t.Errorf("missing action link %s", want)
		}
	}
	if !strings.Contains(body, "Jane &lt;Roe&gt;") {
		t.Error("patient name must be HTML escaped")
	}
	if !strings.Contains(body, "15 minutes") {
		t.Error("consent email states the timeout window")
	}
	if !strings.Contains(body, "[CRITICAL]") {
		t.Error("findings carry severity markers")
	}
}

func TestConsentSMSBody_MethodMarker(t *testing.T) {
	s := &Session{
		ResponseToken:  "tok123",
		AlertType:      notify.SeverityEmergency,
		TimeoutMinutes: 15,
		Findings:       manyFindings(1),
	}

	body := consentSMSBody(s, "Jane Roe", "https://alerts.example.com", MethodWhatsApp)
	if !strings.Contains(body, "/alerts/respond/tok123?method=whatsapp") {
		t.Errorf("sms should link the response form with the channel marker: %s", body)
	}
}

func TestEscalationEmailBody_AutoEscalationNote(t *testing.T) {
	auto := &Session{AlertType: notify.SeverityEmergency, Findings: manyFindings(1), AutoEscalated: true}
	body := escalationEmailBody(auto, "Dr. Okafor", "Jane Roe")
	if !strings.Contains(body, "escalated automatically") {
		t.Error("auto-escalated email should say the patient did not respond")
	}

	manual := &Session{AlertType: notify.SeverityEmergency, Findings: manyFindings(1)}
	body = escalationEmailBody(manual, "Dr. Okafor", "Jane Roe")
	if !strings.Contains(body, "asked for their care team") {
		t.Error("consented email should say the patient asked for help")
	}
	if !strings.Contains(body, "[LIFE-THREATENING]") {
		t.Error("blue findings carry the life-threatening marker")
	}
}
