package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mochibot/pkg/config"
	"mochibot/pkg/cron"
	"mochibot/pkg/interaction"
	"mochibot/pkg/logger"
)

func newTestServer(t *testing.T) (*Server, *interaction.Router) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Gateway.Port = 0 // Don't actually listen

	log := logger.NewNop()
	reg := NewRegistry()
	store := interaction.NewStore()
	metrics, err := interaction.NewMetrics(reg, store)
	if err != nil {
		t.Fatal(err)
	}
	router := interaction.NewRouter(store, log, interaction.WithMetrics(metrics))

	cm := cron.New(log, time.Second)
	if _, err := cm.AddJob(interaction.SweepJobID, "@every 1m", interaction.SweepJob(store, metrics, log)); err != nil {
		t.Fatal(err)
	}

	return NewServer(cfg, log, router, cm, reg), router
}

func noop() interaction.Continuation {
	return interaction.ContinuationFunc(func(context.Context, interaction.Event, interaction.RenderContext) (interaction.Outcome, error) {
		return interaction.Done(interaction.Render{}), nil
	})
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %s", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["busy_policy"] != "block" {
		t.Fatalf("expected block policy, got %v", body["busy_policy"])
	}
	if body["jobs"] != float64(1) {
		t.Fatalf("expected one job, got %v", body["jobs"])
	}
}

func TestSessionsEndpoint(t *testing.T) {
	s, router := newTestServer(t)
	key := interaction.KeyFor("u1", "g1", "c1", "m1")
	if _, err := router.Register(key, noop(), time.Minute, interaction.Command("ticker")); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	var views []SessionView
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected one session, got %d", len(views))
	}
	if views[0].Command != "ticker" || views[0].MessageID != "m1" || views[0].Key != key.String() {
		t.Fatalf("unexpected session view: %+v", views[0])
	}
}

func TestCloseSessionEndpoint(t *testing.T) {
	s, router := newTestServer(t)
	key := interaction.KeyFor("u1", "g1", "c1", "m1")
	if _, err := router.Register(key, noop(), time.Minute); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions?user=u1&guild=g1&channel=c1&message=m1", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if router.Store().Len() != 0 {
		t.Fatal("expected session removed")
	}

	rec = httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions?user=u1&guild=g1&channel=c1&message=m1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for second close, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions?user=u1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without channel, got %d", rec.Code)
	}
}

func TestRunJobEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+interaction.SweepJobID+"/run", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var job cron.Job
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.RunCount != 1 || !job.LastSuccess {
		t.Fatalf("expected one successful run, got %+v", job)
	}

	rec = httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/nope/run", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, router := newTestServer(t)
	router.Dispatch(context.Background(), interaction.Event{
		Kind:      interaction.KindSelection,
		UserID:    "u1",
		ChannelID: "c1",
		MessageID: "m1",
	}, nil)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`mochibot_interaction_dispatches_total{kind="selection",status="not_found"} 1`,
		"mochibot_interaction_sessions 0",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
