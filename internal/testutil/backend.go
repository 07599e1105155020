package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"authfort-cli/internal/domain"
)

// BackendBasePath is the API prefix served by FakeBackend
const BackendBasePath = "/api/v1.0"

// RecordedRequest is one request received by FakeBackend
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

// FakeBackend is an in-process AuthFort backend for client tests.
// Tokens map to profiles; a verified OTP flips IsAccountVerified.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	profiles map[string]*domain.Profile
	otp      string
	requests []RecordedRequest

	// profileStatus forces /profile to fail with this status when non-zero
	profileStatus  int
	profileMessage string
}

// NewFakeBackend starts a backend that accepts otp as the valid code
func NewFakeBackend(t *testing.T, otp string) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		profiles: make(map[string]*domain.Profile),
		otp:      otp,
	}

	r := chi.NewRouter()
	r.Use(b.record)
	r.Route(BackendBasePath, func(r chi.Router) {
		r.Get("/profile", b.handleProfile)
		r.Get("/is-authenticated", b.handleIsAuthenticated)
		r.Post("/verify-otp", b.handleVerifyOTP)
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the API base URL
func (b *FakeBackend) URL() string {
	return b.Server.URL + BackendBasePath
}

// AddUser registers token as valid for profile
func (b *FakeBackend) AddUser(token string, profile *domain.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := *profile
	b.profiles[token] = &p
}

// Requests returns the recorded requests
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// RequestsTo returns the recorded requests whose path ends with endpoint
func (b *FakeBackend) RequestsTo(endpoint string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range b.Requests() {
		if strings.HasSuffix(r.Path, endpoint) {
			out = append(out, r)
		}
	}
	return out
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          string(body),
		})
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) lookup(r *http.Request) (*domain.Profile, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.profiles[token]
	return p, ok
}

// FailProfile makes /profile answer status with message from now on
func (b *FakeBackend) FailProfile(status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profileStatus = status
	b.profileMessage = message
}

func (b *FakeBackend) handleProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	status, msg := b.profileStatus, b.profileMessage
	b.mu.Unlock()
	if status != 0 {
		writeJSON(w, status, map[string]string{"message": msg})
		return
	}

	p, ok := b.lookup(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	b.mu.Lock()
	resp := *p
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (b *FakeBackend) handleIsAuthenticated(w http.ResponseWriter, r *http.Request) {
	_, ok := b.lookup(r)
	writeJSON(w, http.StatusOK, ok)
}

func (b *FakeBackend) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed request"})
		return
	}

	p, ok := b.lookup(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}
	if req.OTP != b.otp {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid OTP"})
		return
	}

	b.mu.Lock()
	p.IsAccountVerified = true
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account verified"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
