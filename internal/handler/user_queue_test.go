package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/virtual-waiting-room/internal/handler"
	"github.com/iliyamo/virtual-waiting-room/internal/repository"
	"github.com/iliyamo/virtual-waiting-room/internal/router"
	"github.com/iliyamo/virtual-waiting-room/internal/service"
	"github.com/iliyamo/virtual-waiting-room/internal/utils"
)

func newTestServer(t *testing.T) (*echo.Echo, *service.AdmissionService) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := service.NewAdmissionService(repository.NewUserQueueRepo(rdb), nil, false)

	e := echo.New()
	e.Renderer = handler.NewRenderer()
	router.RegisterRoutes(e, handler.NewUserQueueHandler(svc, nil), "")
	return e, svc
}

func doRequest(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, httptest.NewRequest(http.MethodPost, "/api/v1/queue?user_id=1001", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "default", body["queue"])
	assert.Equal(t, "1001", body["userId"])
	assert.Equal(t, float64(1), body["rank"])

	// Joining again is a conflict with a machine-readable code.
	rec = doRequest(e, httptest.NewRequest(http.MethodPost, "/api/v1/queue?user_id=1001", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UQ-0001", body["code"])
}

func TestRegisterRequiresUserID(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doRequest(e, httptest.NewRequest(http.MethodPost, "/api/v1/queue", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllowEndpoint(t *testing.T) {
	e, svc := newTestServer(t)
	ctx := context.Background()

	for _, u := range []string{"1001", "1002"} {
		_, err := svc.Register(ctx, "default", u)
		require.NoError(t, err)
	}

	rec := doRequest(e, httptest.NewRequest(http.MethodPost, "/api/v1/queue/allow?count=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(5), body["requestedCount"])
	assert.Equal(t, float64(2), body["allowedCount"])
}

func TestAllowRequiresCount(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doRequest(e, httptest.NewRequest(http.MethodPost, "/api/v1/queue/allow", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, httptest.NewRequest(http.MethodPost, "/api/v1/queue/allow?count=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllowedEndpoint(t *testing.T) {
	e, svc := newTestServer(t)
	ctx := context.Background()

	token, err := utils.QueueToken("default", "1001")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "default", "1001")
	require.NoError(t, err)

	// Correct token, not yet promoted.
	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/queue/allowed?user_id=1001&token="+token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["isAllowed"])

	_, err = svc.Allow(ctx, "default", 1)
	require.NoError(t, err)

	rec = doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/queue/allowed?user_id=1001&token="+token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["isAllowed"])

	// Promoted but presenting someone else's token.
	wrong, _ := utils.QueueToken("default", "9999")
	rec = doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/queue/allowed?user_id=1001&token="+wrong, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["isAllowed"])
}

func TestRankEndpoint(t *testing.T) {
	e, svc := newTestServer(t)
	ctx := context.Background()

	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/queue/rank?queue=default", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := svc.Register(ctx, "default", "1001")
	require.NoError(t, err)

	rec = doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/queue/rank?queue=default&user_id=1001", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["rank"])

	// Unknown users get the not-waiting sentinel, not an error.
	rec = doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/queue/rank?queue=default&user_id=404", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(-1), body["rank"])
}

func TestTouchSetsCookie(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/queue/touch?user_id=1001", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	want, _ := utils.QueueToken("default", "1001")
	assert.Equal(t, want, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "user-queue-default-token", cookies[0].Name)
	assert.Equal(t, want, cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, 3000, cookies[0].MaxAge)
}

func TestBatchesUnavailableWithoutAuditDB(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/queue/batches", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
