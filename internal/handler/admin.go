package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/queueup/waitlist/internal/model"
	"github.com/queueup/waitlist/internal/repository"
	"github.com/queueup/waitlist/internal/service"
	"github.com/queueup/waitlist/internal/utils"
)

// AdminRole is the role claim required on the admin surface.
const AdminRole = "admin"

// AdminHandler exposes the operator dashboard endpoints: login, calling
// and completing customers, the full entry list and the analytics views.
// All methods except Login assume JWT authentication and role validation
// have already been performed by middleware.
type AdminHandler struct {
	Svc          *service.WaitlistService
	Analytics    *service.AnalyticsService
	AdminUser    string // operator login name
	PasswordHash string // bcrypt hash of the operator password
	JWTSecret    string // secret for signing access tokens
	AccessTTLMin int    // token lifetime in minutes
}

// NewAdminHandler constructs an AdminHandler.  Services must be non-nil.
func NewAdminHandler(svc *service.WaitlistService, analytics *service.AnalyticsService, adminUser, passwordHash, jwtSecret string, accessTTLMin int) *AdminHandler {
	if svc == nil || analytics == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{
		Svc:          svc,
		Analytics:    analytics,
		AdminUser:    adminUser,
		PasswordHash: passwordHash,
		JWTSecret:    jwtSecret,
		AccessTTLMin: accessTTLMin,
	}
}

// Login handles POST /api/admin/login.  It verifies the operator
// credentials against the configured login and bcrypt hash and returns a
// signed access token on success.
func (h *AdminHandler) Login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	if body.Username != h.AdminUser || !utils.VerifyPassword(h.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
	}
	token, err := utils.NewAccessToken(h.JWTSecret, body.Username, AdminRole, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":      token.Token,
		"expires_at": token.Exp.Format(time.RFC3339),
	})
}

// transition runs one operator lifecycle action and renders the result.
func (h *AdminHandler) transition(c echo.Context, do func(context.Context, uint64) (*model.QueueEntry, error)) error {
	id, ok := parseEntryID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Queue entry not found"})
	}
	entry, err := do(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEntryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Queue entry not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"message": "Invalid status transition"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update queue entry"})
		}
	}
	return c.JSON(http.StatusOK, toEntryResponse(entry))
}

// Call handles POST /api/admin/call/:id.  It summons a waiting customer
// to the counter.
func (h *AdminHandler) Call(c echo.Context) error {
	return h.transition(c, h.Svc.Call)
}

// Complete handles POST /api/admin/complete/:id.  It marks a called
// customer as served, incrementing their visit count.
func (h *AdminHandler) Complete(c echo.Context) error {
	return h.transition(c, h.Svc.Complete)
}

// Entries handles GET /api/admin/entries.  It returns every entry ever
// created, most recent first.
func (h *AdminHandler) Entries(c echo.Context) error {
	entries, err := h.Svc.AllEntries(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch entries"})
	}
	return c.JSON(http.StatusOK, toEntryResponses(entries))
}

// Stats handles GET /api/admin/stats.  It returns the all-time visit and
// distinct-customer counters.
func (h *AdminHandler) Stats(c echo.Context) error {
	summary, err := h.Analytics.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch stats"})
	}
	return c.JSON(http.StatusOK, summary)
}

// DetailedAnalytics handles GET /api/admin/analytics?period=day|week|month.
// Unknown or missing periods default to day.
func (h *AdminHandler) DetailedAnalytics(c echo.Context) error {
	period := c.QueryParam("period")
	if period == "" {
		period = service.PeriodDay
	}
	stats, err := h.Analytics.Detailed(c.Request().Context(), period)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch analytics"})
	}
	return c.JSON(http.StatusOK, stats)
}
