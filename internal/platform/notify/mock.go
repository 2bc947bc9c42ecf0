package notify

import (
	"context"
	"fmt"
	"sync"
)

// MockCall records one delivery attempt made against a mock sender.
type MockCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender records sent emails for tests.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []MockCall
	ShouldFail bool
}

func NewMockEmailSender() *MockEmailSender { return &MockEmailSender{} }

func (m *MockEmailSender) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if m.ShouldFail {
		return fmt.Errorf("mock email failure")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *MockEmailSender) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockSMSSender records sent SMS messages for tests.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []MockCall
	ShouldFail bool
}

func NewMockSMSSender() *MockSMSSender { return &MockSMSSender{} }

func (m *MockSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if m.ShouldFail {
		return fmt.Errorf("mock sms failure")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{To: to, Body: body})
	return nil
}

func (m *MockSMSSender) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockWhatsAppSender records sent WhatsApp messages for tests.
type MockWhatsAppSender struct {
	mu         sync.Mutex
	calls      []MockCall
	ShouldFail bool
}

func NewMockWhatsAppSender() *MockWhatsAppSender { return &MockWhatsAppSender{} }

func (m *MockWhatsAppSender) SendWhatsApp(ctx context.Context, to, body string) error {
	if m.ShouldFail {
		return fmt.Errorf("mock whatsapp failure")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{To: to, Body: body})
	return nil
}

func (m *MockWhatsAppSender) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}
