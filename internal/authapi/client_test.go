package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authfort-cli/internal/observability"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/api/v1.0", 5*time.Second, opts...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{"plain", "http://localhost:8080/api/v1.0", "http://localhost:8080/api/v1.0", false},
		{"trailing_slash", "https://auth.example.com/api/", "https://auth.example.com/api", false},
		{"no_scheme", "localhost:8080", "", true},
		{"relative", "/api", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.baseURL, time.Second)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.BaseURL())
		})
	}
}

func TestBearerHeader(t *testing.T) {
	assert.Equal(t, "Bearer abc", BearerHeader("abc"))
	assert.Equal(t, "", BearerHeader(""))
}

func TestClient_Profile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1.0/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "authfort-cli/1.0", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		writeJSON(w, http.StatusOK, map[string]any{
			"userId":            "u-1",
			"name":              "Ada",
			"email":             "ada@example.com",
			"isAccountVerified": true,
		})
	})

	profile, err := client.Profile(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", profile.UserID)
	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.True(t, profile.IsAccountVerified)
}

func TestClient_Profile_RequestIDFromContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-42", r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{"email": "a@b.c"})
	})

	ctx := observability.WithRequestID(context.Background(), "req-42")
	_, err := client.Profile(ctx, "tok")
	require.NoError(t, err)
}

func TestClient_Profile_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "JWT expired"})
	})

	profile, err := client.Profile(context.Background(), "stale")
	assert.Nil(t, profile)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "JWT expired", statusErr.Message)
	assert.True(t, IsUnauthorized(err))

	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "JWT expired", msg)
}

func TestClient_Profile_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>"))
	})

	_, err := client.Profile(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_IsAuthenticated(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{"true", http.StatusOK, "true", true, false},
		{"false", http.StatusOK, "false", false, false},
		{"string_true", http.StatusOK, `"true"`, false, false},
		{"object", http.StatusOK, `{"authenticated":true}`, false, false},
		{"no_content", http.StatusNoContent, "", false, false},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Unauthorized"}`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1.0/is-authenticated", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			got, err := client.IsAuthenticated(context.Background(), "tok")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_VerifyOTP(t *testing.T) {
	t.Run("sends_code_and_token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1.0/verify-otp", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{"otp": "123456"}, body)
			w.WriteHeader(http.StatusOK)
		})

		status, err := client.VerifyOTP(context.Background(), "tok", "123456")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("anonymous_has_no_authorization", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, present := r.Header["Authorization"]
			assert.False(t, present)
			w.WriteHeader(http.StatusOK)
		})

		_, err := client.VerifyOTP(context.Background(), "", "123456")
		require.NoError(t, err)
	})

	t.Run("invalid_code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid OTP"})
		})

		status, err := client.VerifyOTP(context.Background(), "tok", "000000")
		assert.Equal(t, http.StatusBadRequest, status)
		msg, ok := ServerMessage(err)
		assert.True(t, ok)
		assert.Equal(t, "Invalid OTP", msg)
	})

	t.Run("error_without_message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.VerifyOTP(context.Background(), "tok", "000000")
		require.Error(t, err)
		_, ok := ServerMessage(err)
		assert.False(t, ok)
		assert.Equal(t, "request failed with status code 502", err.Error())
	})
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(url, time.Second)
	require.NoError(t, err)

	_, err = client.Profile(context.Background(), "tok")
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestClient_ContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte("true"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.IsAuthenticated(ctx, "tok")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", errorMessage([]byte(`{"message":"boom"}`)))
	assert.Equal(t, "Unauthorized", errorMessage([]byte(`{"error":"Unauthorized"}`)))
	assert.Equal(t, "first", errorMessage([]byte(`{"message":"first","error":"second"}`)))
	assert.Equal(t, "", errorMessage([]byte(`not json`)))
	assert.Equal(t, "", errorMessage(nil))
}
