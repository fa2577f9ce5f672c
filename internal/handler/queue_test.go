package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueup/waitlist/internal/repository"
	"github.com/queueup/waitlist/internal/service"
)

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }

func newQueueTestHandler() (*QueueHandler, *service.WaitlistService) {
	svc := service.NewWaitlistService(repository.NewMemoryStore(), nil)
	return NewQueueHandler(svc), svc
}

// doJSON invokes an echo handler directly with an optional JSON body and
// path parameters, returning the recorder.
func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, h(c))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestJoinCreatesEntry(t *testing.T) {
	h, _ := newQueueTestHandler()
	rec := doJSON(t, h.Join, http.MethodPost, "/api/queue",
		`{"name":"Alice","phoneNumber":"5551234567","numberOfPeople":2}`, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Alice", body["name"])
	assert.Equal(t, float64(1), body["position"])
	assert.Equal(t, "waiting", body["status"])
	assert.Equal(t, float64(1), body["visitCount"])
	assert.Equal(t, false, body["isExisting"])
	assert.Equal(t, false, body["isReUsed"])
	assert.NotEmpty(t, body["_id"])
	_, hasCalledAt := body["calledAt"]
	assert.False(t, hasCalledAt, "calledAt is omitted until the entry is called")
}

func TestJoinExistingWaitingReturns200(t *testing.T) {
	h, _ := newQueueTestHandler()
	doJSON(t, h.Join, http.MethodPost, "/api/queue",
		`{"name":"Alice","phoneNumber":"5551234567","numberOfPeople":2}`, nil)
	rec := doJSON(t, h.Join, http.MethodPost, "/api/queue",
		`{"name":"Alice","phoneNumber":"5551234567","numberOfPeople":5}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isExisting"])
	assert.Equal(t, false, body["isReUsed"])
	assert.Equal(t, float64(2), body["numberOfPeople"], "existing entry is returned unchanged")
}

func TestJoinValidationNamesField(t *testing.T) {
	h, _ := newQueueTestHandler()
	rec := doJSON(t, h.Join, http.MethodPost, "/api/queue",
		`{"name":"Alice","phoneNumber":"12345","numberOfPeople":2}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "phoneNumber", body["field"])
	assert.Equal(t, "Phone number must be exactly 10 digits", body["message"])
}

func TestJoinReactivationReturns201WithReusedFlag(t *testing.T) {
	h, svc := newQueueTestHandler()
	ctx := context.Background()
	res, err := svc.Join(ctx, "Alice", "5551234567", 2)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, res.Entry.ID)
	require.NoError(t, err)

	rec := doJSON(t, h.Join, http.MethodPost, "/api/queue",
		`{"name":"Alice","phoneNumber":"5551234567","numberOfPeople":3}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["isExisting"])
	assert.Equal(t, true, body["isReUsed"])
}

func TestGetUnknownEntryReturns404(t *testing.T) {
	h, _ := newQueueTestHandler()
	rec := doJSON(t, h.Get, http.MethodGet, "/api/queue/42", "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByPhoneReturnsNullWhenUnknown(t *testing.T) {
	h, _ := newQueueTestHandler()
	rec := doJSON(t, h.GetByPhone, http.MethodGet, "/api/queue/phone/5550000000", "",
		map[string]string{"phoneNumber": "5550000000"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestPositionReflectsCancellations(t *testing.T) {
	h, svc := newQueueTestHandler()
	ctx := context.Background()
	alice, err := svc.Join(ctx, "Alice", "5551234567", 2)
	require.NoError(t, err)
	bob, err := svc.Join(ctx, "Bob", "5559876543", 4)
	require.NoError(t, err)

	rec := doJSON(t, h.Cancel, http.MethodPatch, "/api/queue/1/cancel", "",
		map[string]string{"id": formatID(alice.Entry.ID)})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.Position, http.MethodGet, "/api/queue/2/position", "",
		map[string]string{"id": formatID(bob.Entry.ID)})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["position"])
	assert.Equal(t, float64(1), body["totalWaiting"])
}

func TestPositionOfCalledEntryReturns404(t *testing.T) {
	h, svc := newQueueTestHandler()
	ctx := context.Background()
	res, err := svc.Join(ctx, "Alice", "5551234567", 2)
	require.NoError(t, err)
	_, err = svc.Call(ctx, res.Entry.ID)
	require.NoError(t, err)

	rec := doJSON(t, h.Position, http.MethodGet, "/api/queue/1/position", "",
		map[string]string{"id": formatID(res.Entry.ID)})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelCompletedEntryReturns409(t *testing.T) {
	h, svc := newQueueTestHandler()
	ctx := context.Background()
	res, err := svc.Join(ctx, "Alice", "5551234567", 2)
	require.NoError(t, err)
	_, err = svc.Call(ctx, res.Entry.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, res.Entry.ID)
	require.NoError(t, err)

	rec := doJSON(t, h.Cancel, http.MethodPatch, "/api/queue/1/cancel", "",
		map[string]string{"id": formatID(res.Entry.ID)})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListReturnsWaitingInPositionOrder(t *testing.T) {
	h, svc := newQueueTestHandler()
	ctx := context.Background()
	_, err := svc.Join(ctx, "Alice", "5551234567", 2)
	require.NoError(t, err)
	_, err = svc.Join(ctx, "Bob", "5559876543", 4)
	require.NoError(t, err)

	rec := doJSON(t, h.List, http.MethodGet, "/api/queue", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0]["name"])
	assert.Equal(t, "Bob", list[1]["name"])
}
