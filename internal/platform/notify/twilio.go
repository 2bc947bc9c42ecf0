package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com"

// TwilioClient sends SMS and WhatsApp messages through the Twilio
// Messages API. It implements both SMSSender and WhatsAppSender.
type TwilioClient struct {
	accountSID   string
	authToken    string
	smsFrom      string
	whatsappFrom string
	baseURL      string
	client       *http.Client
}

func NewTwilioClient(accountSID, authToken, smsFrom, whatsappFrom string) *TwilioClient {
	return &TwilioClient{
		accountSID:   accountSID,
		authToken:    authToken,
		smsFrom:      smsFrom,
		whatsappFrom: whatsappFrom,
		baseURL:      twilioAPIBase,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *TwilioClient) SendSMS(ctx context.Context, to, body string) error {
	return t.send(ctx, t.smsFrom, to, body)
}

func (t *TwilioClient) SendWhatsApp(ctx context.Context, to, body string) error {
	return t.send(ctx, "whatsapp:"+t.whatsappFrom, "whatsapp:"+to, body)
}

func (t *TwilioClient) send(ctx context.Context, from, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.accountSID)

	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building twilio request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling twilio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
