package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"authfort-cli/internal/authapi"
	"authfort-cli/internal/domain"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BackendProber is the slice of the API client used to reach the backend
type BackendProber interface {
	IsAuthenticated(ctx context.Context, token string) (bool, error)
}

// Ready reports whether the token store is readable and the backend answers
func Ready(tokens domain.TokenRepository, backend BackendProber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		storeResult := make(chan HealthCheckResult, 1)
		backendResult := make(chan HealthCheckResult, 1)

		go func() {
			storeResult <- checkTokenStore(ctx, tokens)
		}()

		go func() {
			backendResult <- checkBackend(ctx, backend)
		}()

		storeCheck := <-storeResult
		backendCheck := <-backendResult

		response := map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"checks": map[string]HealthCheckResult{
				"token_store": storeCheck,
				"backend":     backendCheck,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		if storeCheck.Status == "up" && backendCheck.Status == "up" {
			response["status"] = "ready"
			w.WriteHeader(http.StatusOK)
		} else {
			response["status"] = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(response)
	}
}

// checkTokenStore verifies the persisted token can be read; an empty store is fine
func checkTokenStore(ctx context.Context, tokens domain.TokenRepository) HealthCheckResult {
	start := time.Now()
	_, err := tokens.Get(ctx)
	latency := time.Since(start)

	if err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		return HealthCheckResult{Status: "down", LatencyMs: latency.Milliseconds(), Error: err.Error()}
	}
	return HealthCheckResult{Status: "up", LatencyMs: latency.Milliseconds()}
}

// checkBackend sends an anonymous authentication check. Any HTTP answer,
// including 401, proves the backend is reachable.
func checkBackend(ctx context.Context, backend BackendProber) HealthCheckResult {
	start := time.Now()
	_, err := backend.IsAuthenticated(ctx, "")
	latency := time.Since(start)

	var statusErr *authapi.StatusError
	if err != nil && !errors.As(err, &statusErr) {
		return HealthCheckResult{Status: "down", LatencyMs: latency.Milliseconds(), Error: err.Error()}
	}
	return HealthCheckResult{Status: "up", LatencyMs: latency.Milliseconds()}
}
