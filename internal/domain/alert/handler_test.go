package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newHandlerEnv(t *testing.T) (*testEnv, *Handler, *echo.Echo) {
	t.Helper()
	env := newTestEnv(t)
	h := NewHandler(env.service)
	e := echo.New()
	h.RegisterPublic(e)
	return env, h, e
}

func TestRespondHandler_Success(t *testing.T) {
	env, _, e := newHandlerEnv(t)
	session, _ := env.service.OpenSession(context.Background(), env.criticalReading())

	req := httptest.NewRequest(http.MethodPost, "/alerts/respond/"+session.ResponseToken+"/approve_doctor?method=sms", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["action"] != "approve_doctor" {
		t.Errorf("action = %v", resp["action"])
	}
	if resp["status"] != "completed" {
		t.Errorf("status = %v", resp["status"])
	}

	final, _ := env.repo.GetByID(context.Background(), session.ID)
	if final.PatientResponseMethod != MethodSMS {
		t.Errorf("method = %s, want sms from query marker", final.PatientResponseMethod)
	}
}

func TestRespondHandler_GETAccepted(t *testing.T) {
	env, _, e := newHandlerEnv(t)
	session, _ := env.service.OpenSession(context.Background(), env.criticalReading())

	req := httptest.NewRequest(http.MethodGet, "/alerts/respond/"+session.ResponseToken+"/decline", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET action links must work for mail clients, got %d", rec.Code)
	}
}

func TestRespondHandler_UnknownAndConsumedLookIdentical(t *testing.T) {
	env, _, e := newHandlerEnv(t)
	session, _ := env.service.OpenSession(context.Background(), env.criticalReading())

	// Consume the token.
	req := httptest.NewRequest(http.MethodPost, "/alerts/respond/"+session.ResponseToken+"/decline", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("setup response failed: %d", rec.Code)
	}

	do := func(token string) (int, string) {
		req := httptest.NewRequest(http.MethodPost, "/alerts/respond/"+token+"/approve_all", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code, rec.Body.String()
	}

	consumedCode, consumedBody := do(session.ResponseToken)
	unknownCode, unknownBody := do("completely-unknown-token")

	if consumedCode != unknownCode || consumedBody != unknownBody {
		t.Errorf("consumed (%d, %s) and unknown (%d, %s) must be indistinguishable",
			consumedCode, consumedBody, unknownCode, unknownBody)
	}
	if consumedCode != http.StatusNotFound {
		t.Errorf("code = %d, want 404", consumedCode)
	}
}

func TestRespondHandler_InvalidAction(t *testing.T) {
	env, _, e := newHandlerEnv(t)
	session, _ := env.service.OpenSession(context.Background(), env.criticalReading())

	req := httptest.NewRequest(http.MethodPost, "/alerts/respond/"+session.ResponseToken+"/escalate_everything", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	final, _ := env.repo.GetByID(context.Background(), session.ID)
	if !final.IsPending() {
		t.Error("invalid action must leave the session untouched")
	}
}

func TestShowSessionHandler(t *testing.T) {
	env, _, e := newHandlerEnv(t)
	session, _ := env.service.OpenSession(context.Background(), env.criticalReading())

	req := httptest.NewRequest(http.MethodGet, "/alerts/respond/"+session.ResponseToken, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["alert_type"] != "emergency" {
		t.Errorf("alert_type = %v", resp["alert_type"])
	}
	if actions, ok := resp["actions"].([]any); !ok || len(actions) != 5 {
		t.Errorf("actions = %v, want the five decisions", resp["actions"])
	}
	if strings.Contains(rec.Body.String(), session.ResponseToken) {
		t.Error("response body must not echo the bearer token")
	}
}

func TestShowSessionHandler_ResolvedSessionHidden(t *testing.T) {
	env, _, e := newHandlerEnv(t)
	session, _ := env.service.OpenSession(context.Background(), env.criticalReading())
	env.service.Respond(context.Background(), session.ResponseToken, DecisionDecline, MethodWeb)

	req := httptest.NewRequest(http.MethodGet, "/alerts/respond/"+session.ResponseToken, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("resolved session summary should return 404, got %d", rec.Code)
	}
}

func staffContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := e.NewContext(req, rec)
	return c
}

func TestListSessionsHandler(t *testing.T) {
	env, h, e := newHandlerEnv(t)
	env.service.OpenSession(context.Background(), env.criticalReading())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alert-sessions?limit=10", nil)
	rec := httptest.NewRecorder()
	c := staffContext(e, req, rec)

	if err := h.ListSessions(c); err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	var resp struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
}

func TestGetSessionHandler(t *testing.T) {
	env, h, e := newHandlerEnv(t)
	session, _ := env.service.OpenSession(context.Background(), env.criticalReading())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alert-sessions/"+session.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := staffContext(e, req, rec)
	c.SetParamNames("id")
	c.SetParamValues(session.ID.String())

	if err := h.GetSession(c); err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	// Unknown id.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/alert-sessions/x", nil)
	rec = httptest.NewRecorder()
	c = staffContext(e, req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetSession(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("unknown id: got %v, want 404", err)
	}
}

func TestOpenSessionHandler(t *testing.T) {
	env, h, e := newHandlerEnv(t)
	reading := env.criticalReading()
	env.readings.byID[reading.ID] = reading

	body := strings.NewReader(`{"reading_id": "` + reading.ID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alert-sessions/open", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := staffContext(e, req, rec)

	if err := h.OpenSession(c); err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

func TestRunSweepHandler(t *testing.T) {
	env, h, e := newHandlerEnv(t)
	env.service.OpenSession(context.Background(), env.criticalReading())

	body := strings.NewReader(`{"dry_run": true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alert-sessions/sweep", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := staffContext(e, req, rec)

	if err := h.RunSweep(c); err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	var report SweepReport
	json.Unmarshal(rec.Body.Bytes(), &report)
	if report.Checked != 1 {
		t.Errorf("checked = %d, want 1", report.Checked)
	}
	if report.Escalated != 0 {
		t.Errorf("fresh session must not be flagged, got %d", report.Escalated)
	}
}
