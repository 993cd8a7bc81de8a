package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internlee-engine/internal/config"
	"internlee-engine/internal/domain"
	"internlee-engine/internal/events"
	"internlee-engine/internal/logging"
	"internlee-engine/internal/run"
)

type fakeRunner struct {
	status run.Status
	out    run.Outcome
	err    error
	calls  []string
}

func (f *fakeRunner) Trigger(_ context.Context, by string) (run.Outcome, error) {
	f.calls = append(f.calls, by)
	return f.out, f.err
}

func (f *fakeRunner) Status() run.Status { return f.status }

type fakeLister struct {
	listings []domain.Listing
	limit    int
	err      error
}

func (f *fakeLister) List(_ context.Context, limit int) ([]domain.Listing, error) {
	f.limit = limit
	return f.listings, f.err
}

func serve(t *testing.T, d Deps, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	Handler(d).ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestHealthBeforeAnyRun(t *testing.T) {
	d := Deps{Runs: &fakeRunner{status: run.Status{LastStatus: run.StateNever}}}

	rec := serve(t, d, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "never", body["status"])
	assert.Contains(t, body, "last_run_started")
	assert.Nil(t, body["last_run_started"])
	assert.Nil(t, body["last_error"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLastRun(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := "scrape: source naukri: unexpected page layout"
	d := Deps{Runs: &fakeRunner{status: run.Status{
		RunID:          "r-1",
		TriggeredBy:    "scheduler",
		LastRunStarted: &started,
		LastStatus:     run.StateError,
		LastError:      &msg,
		LastCount:      12,
	}}}

	rec := serve(t, d, http.MethodGet, "/jobs/last-run")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "error", body["last_status"])
	assert.Equal(t, msg, body["last_error"])
	assert.Equal(t, float64(12), body["last_count"])
	assert.Equal(t, "2026-03-01T10:00:00Z", body["last_run_started"])
	assert.Nil(t, body["last_run_finished"])
}

func TestRefresh(t *testing.T) {
	r := &fakeRunner{out: run.Outcome{Status: "ok", Count: 31}}
	rec := serve(t, Deps{Runs: r}, http.MethodPost, "/jobs/refresh")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","count":31}`, rec.Body.String())
	assert.Equal(t, []string{"manual"}, r.calls)
}

func TestRefreshConflict(t *testing.T) {
	r := &fakeRunner{err: run.ErrConflict}
	rec := serve(t, Deps{Runs: r}, http.MethodPost, "/jobs/refresh")

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	e := body["error"].(map[string]any)
	assert.Equal(t, "conflict", e["code"])
	assert.NotEmpty(t, e["request_id"])
}

func TestRefreshFailure(t *testing.T) {
	r := &fakeRunner{err: errors.New("publish: delete snapshot: connection refused")}
	rec := serve(t, Deps{Runs: r}, http.MethodPost, "/jobs/refresh")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, "run_failed", e["code"])
	assert.Contains(t, e["message"], "connection refused")
}

func TestWrongMethod(t *testing.T) {
	rec := serve(t, Deps{Runs: &fakeRunner{}}, http.MethodGet, "/jobs/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListJobs(t *testing.T) {
	l := &fakeLister{listings: []domain.Listing{domain.Listing{Company: "Acme", Title: "Intern"}.Normalize()}}
	d := Deps{Runs: &fakeRunner{}, Store: l}

	rec := serve(t, d, http.MethodGet, "/jobs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500, l.limit)

	var got []domain.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Company)

	serve(t, d, http.MethodGet, "/jobs?limit=20000")
	assert.Equal(t, maxListLimit, l.limit)

	rec = serve(t, d, http.MethodGet, "/jobs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListJobsStoreError(t *testing.T) {
	d := Deps{Runs: &fakeRunner{}, Store: &fakeLister{err: errors.New("db closed")}}
	rec := serve(t, d, http.MethodGet, "/jobs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConfigIsRedacted(t *testing.T) {
	cfg := config.Default()
	cfg.Store.DSN = "postgres://scraper:hunter2@db:5432/jobs"
	cfg.Notify.Telegram.Token = "123:abc"

	rec := serve(t, Deps{Runs: &fakeRunner{}, Cfg: cfg, Warnings: []string{"low interval"}}, http.MethodGet, "/config")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
	assert.NotContains(t, rec.Body.String(), "123:abc")
	assert.Contains(t, rec.Body.String(), "low interval")
}

func TestRecoverWritesEnvelope(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), RequestID, Recover(nopLog()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode(t, rec)["error"].(map[string]any)["code"])
}

func TestCorsPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/jobs/refresh", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rec := httptest.NewRecorder()
	Handler(Deps{Runs: &fakeRunner{}}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEventsStream(t *testing.T) {
	hub := events.NewHub()
	srv := httptest.NewServer(Handler(Deps{Runs: &fakeRunner{}, Hub: hub}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	next := func() string {
		for {
			line, err := rd.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}

	assert.Contains(t, next(), `"type":"ping"`)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(events.MakeEvent("", events.TypeRunStarted, events.Version, events.RunStarted{RunID: "r-9"}))
	assert.Contains(t, next(), `"run_id":"r-9"`)

	require.NoError(t, resp.Body.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func nopLog() *logging.Logger { return logging.Nop() }
