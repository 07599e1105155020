// Package agent runs the long-lived local session daemon: it keeps the
// session fresh in the background and serves it to other local tools.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authfort-cli/internal/domain"
	"authfort-cli/internal/handler"
	"authfort-cli/internal/middleware"
	"authfort-cli/internal/security"
	"authfort-cli/internal/service"
	"authfort-cli/internal/websocket"
)

const (
	refreshTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Agent owns a session store and exposes it over HTTP
type Agent struct {
	store           *service.SessionStore
	tokens          domain.TokenRepository
	backend         handler.BackendProber
	hub             *websocket.Hub
	csrf            *security.CSRFGuard
	refreshInterval time.Duration
}

// New creates an agent. The store must already be constructed from tokens.
func New(store *service.SessionStore, tokens domain.TokenRepository, backend handler.BackendProber, refreshInterval time.Duration) (*Agent, error) {
	guard, err := security.NewCSRFGuard()
	if err != nil {
		return nil, err
	}
	return &Agent{
		store:           store,
		tokens:          tokens,
		backend:         backend,
		hub:             websocket.NewHub(),
		csrf:            guard,
		refreshInterval: refreshInterval,
	}, nil
}

// CSRFToken returns the token state-changing requests must carry
func (a *Agent) CSRFToken() string {
	return a.csrf.Token()
}

// Router builds the agent's HTTP API. Rate limiter sweeps stop with ctx.
func (a *Agent) Router(ctx context.Context) http.Handler {
	sessionHandler := handler.NewSessionHandler(a.store)
	wsHandler := handler.NewWebSocketHandler(a.hub, a.store)

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics())

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(a.tokens, a.backend))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		limiter := middleware.NewRateLimiter(ctx, 10, 20)
		r.Use(limiter.Middleware())
		r.Use(middleware.CSRF(a.csrf))

		r.Get("/csrf-token", a.handleCSRFToken)
		r.Get("/session", sessionHandler.Get)
		r.Post("/session/refresh", sessionHandler.Refresh)
		r.Post("/session/login", sessionHandler.Login)
		r.Post("/session/logout", sessionHandler.Logout)
		r.Get("/session/events", wsHandler.HandleConnection)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Not found"}`, http.StatusNotFound)
	})

	return r
}

func (a *Agent) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(map[string]string{"csrf_token": a.csrf.Token()})
}

// Run listens on addr and serves until ctx is done
func (a *Agent) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve starts the event hub, the refresh loop and the HTTP server on ln,
// and shuts everything down when ctx is done.
func (a *Agent) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := a.hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("event hub error", slog.String("error", err.Error()))
		}
	}()

	unsubscribe := a.store.Subscribe(a.hub.PublishSession)
	defer unsubscribe()

	if err := a.store.Start(ctx); err != nil {
		slog.Warn("initial authentication check failed", slog.String("error", err.Error()))
	}

	go a.refreshLoop(ctx)

	srv := &http.Server{
		Handler:      a.Router(ctx),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("agent listening", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("agent server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down agent")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("agent shutdown: %w", err)
	}

	slog.Info("agent stopped gracefully")
	return nil
}

// refreshLoop re-checks the stored token on every tick
func (a *Agent) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping session refresh task")
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
			if err := a.store.RefreshAuthState(refreshCtx); err != nil {
				slog.Error("session refresh failed", slog.String("error", err.Error()))
			} else {
				slog.Debug("session refresh completed",
					slog.Bool("logged_in", a.store.Snapshot().IsLoggedIn))
			}
			cancel()
		}
	}
}
