package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/balkashynov/trakr/internal/config"
	store "github.com/balkashynov/trakr/internal/db"
	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/logging"
	"github.com/balkashynov/trakr/internal/models"
)

type testEnvelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

type testEnv struct {
	db      *gorm.DB
	ledger  *ledger.Ledger
	server  *Server
	handler http.Handler
}

func quietLogger() *slog.Logger {
	return logging.Discard().Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := store.Open(filepath.Join(t.TempDir(), "trakr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(gdb) })

	l := ledger.New(gdb)
	srv := NewServer(config.ServerConfig{Addr: "127.0.0.1:0", StopOnExit: true}, l, time.UTC, quietLogger())

	return &testEnv{db: gdb, ledger: l, server: srv, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)

	rec, env := e.do(t, http.MethodGet, "/api/v1/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CodeOK, env.Code)
	assert.Equal(t, "ok", env.Message)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsReused(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"request_id":"abc-123"`)
}

func TestTrackingFlow(t *testing.T) {
	e := newTestEnv(t)

	rec, env := e.do(t, http.MethodPost, "/api/v1/trackers", `{"label":"Writing"}`)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	tracker := decodeData[models.Tracker](t, env)
	assert.Equal(t, "Writing", tracker.Label)

	rec, env = e.do(t, http.MethodPost, "/api/v1/trackers/"+itoa(tracker.ID)+"/lines", `{"description":"Draft"}`)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	line := decodeData[models.Line](t, env)
	assert.Equal(t, tracker.ID, line.TrackerID)
	require.Len(t, line.Sessions, 1)
	assert.True(t, line.Sessions[0].IsOpen())

	rec, env = e.do(t, http.MethodGet, "/api/v1/sessions/open", "")
	require.Equal(t, http.StatusOK, rec.Code)
	open := decodeData[[]sessionView](t, env)
	require.Len(t, open, 1)
	assert.Equal(t, line.ID, open[0].LineID)

	lineURL := "/api/v1/lines/" + itoa(line.ID)

	rec, env = e.do(t, http.MethodPost, lineURL+"/stop", "")
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	stopped := decodeData[sessionView](t, env)
	require.NotNil(t, stopped.EndedAt)
	assert.False(t, stopped.EndedAt.Before(stopped.StartedAt))

	rec, env = e.do(t, http.MethodPost, lineURL+"/stop", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeConflict, env.Code)

	rec, _ = e.do(t, http.MethodPost, lineURL+"/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = e.do(t, http.MethodPost, lineURL+"/resume", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeConflict, env.Code)

	rec, env = e.do(t, http.MethodGet, "/api/v1/trackers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	views := decodeData[[]trackerView](t, env)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].Entries)
	assert.True(t, views[0].Running)
	require.Len(t, views[0].Lines, 1)
	assert.Len(t, views[0].Lines[0].Sessions, 2)

	rec, env = e.do(t, http.MethodPatch, lineURL, `{"description":"Second draft"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Second draft", decodeData[models.Line](t, env).Desc)

	rec, env = e.do(t, http.MethodGet, "/api/v1/sessions/today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]sessionView](t, env), 2)

	rec, _ = e.do(t, http.MethodDelete, "/api/v1/trackers/"+itoa(tracker.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = e.do(t, http.MethodGet, "/api/v1/lines", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[[]models.Line](t, env))
}

func TestCreateIdleLine(t *testing.T) {
	e := newTestEnv(t)

	tracker, err := e.ledger.CreateTracker(context.Background(), "Reading")
	require.NoError(t, err)

	rec, env := e.do(t, http.MethodPost, "/api/v1/trackers/"+itoa(tracker.ID)+"/lines",
		`{"description":"Chapter 1","start":false}`)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	line := decodeData[models.Line](t, env)
	assert.Empty(t, line.Sessions)

	rec, _ = e.do(t, http.MethodPost, "/api/v1/lines/"+itoa(line.ID)+"/start", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	e := newTestEnv(t)

	testCases := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   int
	}{
		{"blank label", http.MethodPost, "/api/v1/trackers", `{"label":"  "}`, http.StatusBadRequest, CodeBadParam},
		{"malformed body", http.MethodPost, "/api/v1/trackers", `{"label":`, http.StatusBadRequest, CodeBadParam},
		{"bad id", http.MethodPost, "/api/v1/lines/abc/stop", "", http.StatusBadRequest, CodeBadParam},
		{"zero id", http.MethodDelete, "/api/v1/lines/0", "", http.StatusBadRequest, CodeBadParam},
		{"unknown line", http.MethodPost, "/api/v1/lines/77/stop", "", http.StatusNotFound, CodeNotFound},
		{"unknown tracker", http.MethodDelete, "/api/v1/trackers/77", "", http.StatusNotFound, CodeNotFound},
		{"line on unknown tracker", http.MethodPost, "/api/v1/trackers/77/lines", `{"description":"x"}`, http.StatusNotFound, CodeNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := e.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCode, env.Code)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestStorageFailureMapsTo503(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, store.Close(e.db))

	rec, env := e.do(t, http.MethodPost, "/api/v1/trackers", `{"label":"Writing"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeStorage, env.Code)
}

func TestStopAllAndTruncate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	for _, label := range []string{"Writing", "Reading", "Cooking"} {
		tracker, err := e.ledger.CreateTracker(ctx, label)
		require.NoError(t, err)
		if label == "Cooking" {
			_, err = e.ledger.CreateLine(ctx, tracker.ID, "idle")
		} else {
			_, err = e.ledger.CreateLineAndStart(ctx, tracker.ID, "busy")
		}
		require.NoError(t, err)
	}

	rec, env := e.do(t, http.MethodPost, "/api/v1/sessions/stop-all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[struct {
		Closed int `json:"closed"`
	}](t, env)
	assert.Equal(t, 2, result.Closed)

	rec, _ = e.do(t, http.MethodPost, "/api/v1/admin/truncate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	trackers, err := e.ledger.GetTrackers(ctx)
	require.NoError(t, err)
	assert.Empty(t, trackers)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(quietLogger()))
	r.GET("/boom", func(*gin.Context) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":1000`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)

	rec, env := e.do(t, http.MethodGet, "/api/v1/nothing-here", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, env.Code)
	assert.NotEmpty(t, env.RequestID)
}

func TestServeStopsOpenSessionsOnShutdown(t *testing.T) {
	e := newTestEnv(t)
	bg := context.Background()

	tracker, err := e.ledger.CreateTracker(bg, "Writing")
	require.NoError(t, err)
	_, err = e.ledger.CreateLineAndStart(bg, tracker.ID, "Draft")
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(bg)
	done := make(chan error, 1)
	go func() { done <- e.server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	open, err := e.ledger.OpenSessions(bg)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestServeReportsStopFailure(t *testing.T) {
	e := newTestEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	require.NoError(t, store.Close(e.db))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = e.server.Serve(ctx, ln)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrStorage)
}

func TestServeStopsOpenSessionsDespiteStalledClient(t *testing.T) {
	e := newTestEnv(t)
	e.server.shutdownTimeout = 200 * time.Millisecond
	bg := context.Background()

	tracker, err := e.ledger.CreateTracker(bg, "Writing")
	require.NoError(t, err)
	_, err = e.ledger.CreateLineAndStart(bg, tracker.ID, "Draft")
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(bg)
	done := make(chan error, 1)
	go func() { done <- e.server.Serve(ctx, ln) }()

	// announce a body that never fully arrives
	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("POST /api/v1/trackers HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Length: 100\r\n\r\n" +
		`{"label":`))
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	open, err := e.ledger.OpenSessions(bg)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
