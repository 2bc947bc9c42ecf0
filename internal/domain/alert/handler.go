package alert

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/inhealth/alertd/internal/platform/auth"
	"github.com/inhealth/alertd/pkg/pagination"
)

// Handler exposes the patient response links and the staff API.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublic mounts the tokenized patient response routes. GET is
// accepted alongside POST because mail clients follow plain links.
func (h *Handler) RegisterPublic(e *echo.Echo) {
	e.GET("/alerts/respond/:token", h.ShowSession)
	e.GET("/alerts/respond/:token/:action", h.Respond)
	e.POST("/alerts/respond/:token/:action", h.Respond)
}

// RegisterStaff mounts the care-team API behind auth middleware.
func (h *Handler) RegisterStaff(g *echo.Group) {
	g.GET("/alert-sessions", h.ListSessions, auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleOperator))
	g.GET("/alert-sessions/:id", h.GetSession, auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleOperator))
	g.POST("/alert-sessions/open", h.OpenSession, auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleOperator))
	g.POST("/alert-sessions/sweep", h.RunSweep, auth.RequireRole(auth.RoleOperator))
}

// invalidLink is the one body returned for unknown tokens and for
// sessions that already resolved, so URL probing learns nothing about a
// patient's alert history.
func invalidLink(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{
		"message": "This alert response link is invalid or has expired.",
	})
}

// ShowSession renders the response-form data for a pending session.
func (h *Handler) ShowSession(c echo.Context) error {
	session, err := h.service.GetByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load alert")
	}
	if session == nil || !session.IsPending() {
		return invalidLink(c)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"alert_type":      session.AlertType,
		"findings":        session.Findings,
		"timeout_minutes": session.TimeoutMinutes,
		"created_at":      session.CreatedAt,
		"actions": []Decision{
			DecisionApproveDoctor, DecisionApproveNurse, DecisionApproveEMS,
			DecisionApproveAll, DecisionDecline,
		},
	})
}

// Respond applies the patient's decision from an action link.
func (h *Handler) Respond(c echo.Context) error {
	decision := Decision(c.Param("action"))
	method := ResponseMethod(c.QueryParam("method"))

	outcome, err := h.service.Respond(c.Request().Context(), c.Param("token"), decision, method)
	if err == ErrInvalidDecision {
		return echo.NewHTTPError(http.StatusBadRequest, "unrecognized action")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process response")
	}
	if !outcome.Accepted {
		return invalidLink(c)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Your response has been recorded. Thank you.",
		"action":  decision,
		"status":  outcome.Status,
	})
}

func (h *Handler) ListSessions(c echo.Context) error {
	p := pagination.FromContext(c)
	sessions, total, err := h.service.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list alert sessions")
	}
	if sessions == nil {
		sessions = []Session{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(sessions, total, p.Limit, p.Offset))
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}

	session, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load alert session")
	}
	if session == nil {
		return echo.NewHTTPError(http.StatusNotFound, "alert session not found")
	}
	return c.JSON(http.StatusOK, session)
}

type openSessionRequest struct {
	ReadingID uuid.UUID `json:"reading_id"`
}

// OpenSession evaluates a stored reading on demand, for clinical-workflow
// integrations that ingest vitals out of band.
func (h *Handler) OpenSession(c echo.Context) error {
	var req openSessionRequest
	if err := c.Bind(&req); err != nil || req.ReadingID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reading_id is required")
	}

	session, err := h.service.OpenSessionForReading(c.Request().Context(), req.ReadingID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open alert session")
	}
	if session == nil {
		return c.JSON(http.StatusOK, map[string]any{
			"session": nil,
			"message": "reading has no critical findings",
		})
	}
	return c.JSON(http.StatusCreated, map[string]any{"session": session})
}

type sweepRequest struct {
	DryRun bool `json:"dry_run"`
}

func (h *Handler) RunSweep(c echo.Context) error {
	var req sweepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	report, err := h.service.Sweep(c.Request().Context(), time.Now(), req.DryRun)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "sweep failed")
	}
	return c.JSON(http.StatusOK, report)
}
