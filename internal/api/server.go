// Package api serves the chat assistant and the job board over HTTP.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/ai"
	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/render"
	"github.com/spigell/smart-hr/internal/scoring"
	"github.com/spigell/smart-hr/internal/tools"
)

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read-header-timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown-timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed-origins"`
	// ChatPerMinute limits chat turns per owner; zero disables the limit.
	ChatPerMinute float64 `mapstructure:"chat-per-minute"`
	ChatBurst     int     `mapstructure:"chat-burst"`
}

type capabilities interface {
	Invoke(ctx context.Context, caller tools.Caller, req tools.Request) tools.Result
	Rank(ctx context.Context, caller tools.Caller, jobID string, limit int) (*domain.Job, scoring.Ranking, error)
}

type jobWriter interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	UpdateJobStatus(ctx context.Context, ownerID, jobID string, status domain.JobStatus) error
	CreateApplication(ctx context.Context, app *domain.Application) error
	UpdateApplicationStatus(ctx context.Context, ownerID, applicationID string, status domain.ApplicationStatus) (*domain.Application, error)
}

type authenticator interface {
	Authenticate(r *http.Request) (tools.Caller, error)
}

type Server struct {
	cfg      Config
	tools    capabilities
	jobs     jobWriter
	pipeline ai.Pipeline
	auth     authenticator
	renderer *render.Renderer
	limiter  *ownerLimiter
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewServer(cfg Config, t capabilities, jobs jobWriter, pipeline ai.Pipeline, authn authenticator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		cfg:      cfg,
		tools:    t,
		jobs:     jobs,
		pipeline: pipeline,
		auth:     authn,
		renderer: render.New(),
		limiter:  newOwnerLimiter(cfg.ChatPerMinute, cfg.ChatBurst),
		logger:   logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/chat", s.requireAuth(s.handleChat))
	mux.HandleFunc("GET /api/chat/ws", s.requireAuth(s.handleChatWS))
	mux.HandleFunc("POST /api/render", s.handleRender)

	mux.HandleFunc("GET /api/jobs", s.requireAuth(s.handleListJobs))
	mux.HandleFunc("POST /api/jobs", s.requireAuth(s.handleCreateJob))
	mux.HandleFunc("GET /api/jobs/{id}", s.requireAuth(s.handleGetJob))
	mux.HandleFunc("PATCH /api/jobs/{id}/status", s.requireAuth(s.handleUpdateJobStatus))
	mux.HandleFunc("GET /api/jobs/{id}/best", s.requireAuth(s.handleBestApplications))
	mux.HandleFunc("GET /api/jobs/{id}/best.xlsx", s.requireAuth(s.handleBestApplicationsXLSX))
	mux.HandleFunc("POST /api/jobs/{id}/applications", s.handleApply)

	mux.HandleFunc("GET /api/applications", s.requireAuth(s.handleListApplications))
	mux.HandleFunc("GET /api/applications/{id}", s.requireAuth(s.handleGetApplication))
	mux.HandleFunc("PATCH /api/applications/{id}/status", s.requireAuth(s.handleUpdateApplicationStatus))

	mux.HandleFunc("GET /api/stats", s.requireAuth(s.handleStats))

	return s.loggingMiddleware(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// checkOrigin accepts clients without an Origin header and origins matching a configured prefix.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		return strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "https://localhost")
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}
