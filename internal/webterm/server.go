package webterm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/dshills/khafre/internal/logging"
	"github.com/dshills/khafre/internal/terminal"
	"github.com/dshills/khafre/internal/theme"
)

// Config configures a Server.
type Config struct {
	// AllowedOrigins lists origins accepted for WebSocket upgrades in
	// addition to same-host requests.
	AllowedOrigins []string
	// InputRate and InputBurst bound input frames per connection.
	InputRate  float64
	InputBurst int
	Scheme     theme.Scheme
	Logger     *slog.Logger
}

// Server exposes a session manager over HTTP.
type Server struct {
	mgr      *terminal.Manager
	cfg      Config
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	scheme theme.Scheme
}

// New creates a server for mgr.
func New(mgr *terminal.Manager, cfg Config) *Server {
	if cfg.InputRate <= 0 {
		cfg.InputRate = 200
	}
	if cfg.InputBurst <= 0 {
		cfg.InputBurst = 400
	}
	if cfg.Scheme == (theme.Scheme{}) {
		cfg.Scheme = theme.Dark()
	}
	s := &Server{
		mgr:    mgr,
		cfg:    cfg,
		log:    logging.WithComponent(cfg.Logger, logging.CompWeb),
		scheme: cfg.Scheme,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 16384,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// SetScheme changes the colors used for new snapshot frames.
func (s *Server) SetScheme(scheme theme.Scheme) {
	s.mu.Lock()
	s.scheme = scheme
	s.mu.Unlock()
}

func (s *Server) currentScheme() theme.Scheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheme
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/snapshot", s.handleSnapshot)
			r.Get("/ws", s.handleWS)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr)
	})
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiErrorResponse{Error: apiError{Code: code, Message: message}})
}

// writeSessionError maps terminal errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	var spawnErr *terminal.SpawnError
	switch {
	case errors.Is(err, terminal.ErrSessionNotFound):
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, terminal.ErrSessionExists):
		writeAPIError(w, http.StatusConflict, "SESSION_EXISTS", err.Error())
	case errors.Is(err, terminal.ErrInvalidSize):
		writeAPIError(w, http.StatusBadRequest, "INVALID_SIZE", err.Error())
	case errors.Is(err, terminal.ErrManagerClosed):
		writeAPIError(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", err.Error())
	case errors.Is(err, terminal.ErrSessionClosed):
		writeAPIError(w, http.StatusGone, "SESSION_CLOSED", err.Error())
	case errors.As(err, &spawnErr):
		writeAPIError(w, http.StatusUnprocessableEntity, "SPAWN_FAILED", err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
