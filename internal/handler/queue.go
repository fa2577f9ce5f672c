package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/queueup/waitlist/internal/model"
	"github.com/queueup/waitlist/internal/repository"
	"github.com/queueup/waitlist/internal/service"
)

// entryResponse is the wire representation of a queue entry.  The legacy
// client consumes `_id` as a string, timestamps as RFC3339 and omits
// calledAt while unset, so the handler layer owns this shape rather than
// the model.
type entryResponse struct {
	ID             string  `json:"_id"`
	Name           string  `json:"name"`
	PhoneNumber    string  `json:"phoneNumber"`
	NumberOfPeople int     `json:"numberOfPeople"`
	Position       int     `json:"position"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"createdAt"`
	CalledAt       *string `json:"calledAt,omitempty"`
	VisitCount     int     `json:"visitCount"`
}

// joinResponse is entryResponse plus the greeting flags for POST /api/queue.
type joinResponse struct {
	entryResponse
	IsExisting bool `json:"isExisting"`
	IsReUsed   bool `json:"isReUsed"`
}

func toEntryResponse(e *model.QueueEntry) entryResponse {
	resp := entryResponse{
		ID:             strconv.FormatUint(e.ID, 10),
		Name:           e.Name,
		PhoneNumber:    e.PhoneNumber,
		NumberOfPeople: e.NumberOfPeople,
		Position:       e.Position,
		Status:         e.Status,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
		VisitCount:     e.VisitCount,
	}
	if e.CalledAt != nil {
		iso := e.CalledAt.UTC().Format(time.RFC3339)
		resp.CalledAt = &iso
	}
	return resp
}

func toEntryResponses(entries []model.QueueEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryResponse(&entries[i]))
	}
	return out
}

// parseEntryID reads the :id path parameter.
func parseEntryID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// QueueHandler exposes the public waitlist endpoints: joining, listing,
// self-service cancellation and position polling.
type QueueHandler struct {
	Svc *service.WaitlistService
}

// NewQueueHandler constructs a QueueHandler.  The service must be non-nil.
func NewQueueHandler(svc *service.WaitlistService) *QueueHandler {
	if svc == nil {
		panic("nil service passed to NewQueueHandler")
	}
	return &QueueHandler{Svc: svc}
}

// List handles GET /api/queue.  It returns all waiting entries ordered by
// ascending position.
func (h *QueueHandler) List(c echo.Context) error {
	entries, err := h.Svc.Queue(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch queue"})
	}
	return c.JSON(http.StatusOK, toEntryResponses(entries))
}

// Get handles GET /api/queue/:id.  It returns a single entry or 404.
func (h *QueueHandler) Get(c echo.Context) error {
	id, ok := parseEntryID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Queue entry not found"})
	}
	entry, err := h.Svc.Entry(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Queue entry not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch queue entry"})
	}
	return c.JSON(http.StatusOK, toEntryResponse(entry))
}

// GetByPhone handles GET /api/queue/phone/:phoneNumber.  It returns the
// most recent entry for the phone number, or a JSON null when the phone
// has never joined.  The status page uses this to restore a session.
func (h *QueueHandler) GetByPhone(c echo.Context) error {
	entry, err := h.Svc.LatestByPhone(c.Request().Context(), c.Param("phoneNumber"))
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return c.JSON(http.StatusOK, nil)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch queue entry"})
	}
	return c.JSON(http.StatusOK, toEntryResponse(entry))
}

// Join handles POST /api/queue.  A phone number with an entry already
// waiting gets that entry back with 200 and isExisting=true; otherwise a
// reactivated or brand-new entry is returned with 201.  Validation
// failures yield 400 with the offending field named.
func (h *QueueHandler) Join(c echo.Context) error {
	var body struct {
		Name           string `json:"name"`
		PhoneNumber    string `json:"phoneNumber"`
		NumberOfPeople int    `json:"numberOfPeople"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	res, err := h.Svc.Join(c.Request().Context(), body.Name, body.PhoneNumber, body.NumberOfPeople)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": ve.Message, "field": ve.Field})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create queue entry"})
	}
	resp := joinResponse{
		entryResponse: toEntryResponse(res.Entry),
		IsExisting:    res.IsExisting,
		IsReUsed:      res.IsReused,
	}
	status := http.StatusCreated
	if res.IsExisting {
		status = http.StatusOK
	}
	return c.JSON(status, resp)
}

// Cancel handles PATCH /api/queue/:id/cancel.  Customers use it to leave
// the queue; it is also the endpoint shape the admin dashboard reuses.
// Cancelling an entry that already completed is rejected with 409.
func (h *QueueHandler) Cancel(c echo.Context) error {
	id, ok := parseEntryID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Queue entry not found"})
	}
	entry, err := h.Svc.Cancel(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEntryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Queue entry not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"message": "Entry can no longer be cancelled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to cancel queue entry"})
		}
	}
	return c.JSON(http.StatusOK, toEntryResponse(entry))
}

// Position handles GET /api/queue/:id/position.  It reports the entry's
// rank among waiting customers and the total number waiting.  Entries
// that are not waiting report 404, the same as unknown ids.
func (h *QueueHandler) Position(c echo.Context) error {
	id, ok := parseEntryID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Queue entry not found"})
	}
	pos, err := h.Svc.Position(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Queue entry not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to get position"})
	}
	return c.JSON(http.StatusOK, pos)
}
