// Package gateway provides the ops HTTP server: health, status, the open
// interactive sessions, scheduled jobs and Prometheus metrics.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mochibot/pkg/config"
	"mochibot/pkg/cron"
	"mochibot/pkg/interaction"
	"mochibot/pkg/logger"
	"mochibot/pkg/version"
)

// SessionView is the JSON form of an open session.
type SessionView struct {
	Key        string    `json:"key"`
	UserID     string    `json:"user_id"`
	GuildID    string    `json:"guild_id,omitempty"`
	ChannelID  string    `json:"channel_id"`
	MessageID  string    `json:"message_id,omitempty"`
	Command    string    `json:"command,omitempty"`
	Generation uint64    `json:"generation"`
	Shared     bool      `json:"shared"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func viewOf(s interaction.Session) SessionView {
	return SessionView{
		Key:        s.Key.String(),
		UserID:     s.Key.UserID,
		GuildID:    s.Key.GuildID,
		ChannelID:  s.Key.ChannelID,
		MessageID:  s.Key.MessageID,
		Command:    s.Command,
		Generation: s.Generation,
		Shared:     s.Shared,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
	}
}

// Server is the ops HTTP server.
type Server struct {
	config   *config.Config
	logger   *logger.Logger
	router   *interaction.Router
	cron     *cron.Manager
	gatherer prometheus.Gatherer
	mux      *http.ServeMux
	server   *http.Server
}

// NewServer creates a new gateway server.
func NewServer(cfg *config.Config, log *logger.Logger, router *interaction.Router, cm *cron.Manager, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		config:   cfg,
		logger:   log,
		router:   router,
		cron:     cm,
		gatherer: gatherer,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/sessions", s.handleSessions)
	mux.HandleFunc("DELETE /api/v1/sessions", s.handleCloseSession)
	mux.HandleFunc("GET /api/v1/jobs", s.handleJobs)
	mux.HandleFunc("POST /api/v1/jobs/{id}/run", s.handleRunJob)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux = mux
}

// Start starts the gateway server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Gateway.Host, s.config.Gateway.Port)
	s.logger.Info("Gateway server starting",
		zap.String("addr", addr),
	)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Gateway server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the gateway server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Gateway server stopping")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":     version.GetVersion(),
		"build":       version.GetInfo(),
		"sessions":    s.router.Store().Len(),
		"busy_policy": s.router.BusyPolicy().String(),
		"default_ttl": s.router.DefaultTTL().String(),
		"jobs":        len(s.cron.ListJobs()),
		"gateway": map[string]any{
			"host": s.config.Gateway.Host,
			"port": s.config.Gateway.Port,
		},
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	snapshot := s.router.Store().Snapshot()
	views := make([]SessionView, 0, len(snapshot))
	for _, sess := range snapshot {
		views = append(views, viewOf(sess))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleCloseSession force-closes the session at the key given by the
// user, guild, channel and message query parameters.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := interaction.KeyFor(q.Get("user"), q.Get("guild"), q.Get("channel"), q.Get("message"))
	if key.UserID == "" || key.ChannelID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user and channel are required"})
		return
	}

	if _, ok := s.router.Store().Lookup(key); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	s.router.Store().Remove(key)
	s.logger.Info("Session closed from gateway", zap.String("key", key.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cron.ListJobs())
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.cron.RunNow(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	job, err := s.cron.GetJob(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
