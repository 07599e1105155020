// Package authapi is the HTTP client for the AuthFort backend endpoints.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"authfort-cli/internal/domain"
	"authfort-cli/internal/observability"
)

// Endpoint paths, relative to the configured base URL
const (
	EndpointProfile         = "/profile"
	EndpointIsAuthenticated = "/is-authenticated"
	EndpointVerifyOTP       = "/verify-otp"
)

const (
	userAgent       = "authfort-cli/1.0"
	maxResponseSize = 1 << 20
)

// HTTPDoer is the subset of *http.Client the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the AuthFort backend. It holds no credentials: every call
// takes the bearer token explicitly.
type Client struct {
	baseURL    *url.URL
	httpClient HTTPDoer
	contract   *Contract
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// WithContract enables response validation against the API contract
func WithContract(contract *Contract) Option {
	return func(c *Client) { c.contract = contract }
}

// NewClient creates a new backend client
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme and host required", baseURL)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Profile fetches the user data for token
func (c *Client) Profile(ctx context.Context, token string) (*domain.Profile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, EndpointProfile, token, nil)
	if err != nil {
		return nil, err
	}

	_, body, err := c.do(req, EndpointProfile)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{}
	if err := json.Unmarshal(body, profile); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", ErrInvalidResponse, err)
	}
	return profile, nil
}

// IsAuthenticated asks the backend whether token is still valid.
// Only a 200 with a JSON boolean true counts as authenticated.
func (c *Client) IsAuthenticated(ctx context.Context, token string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, EndpointIsAuthenticated, token, nil)
	if err != nil {
		return false, err
	}

	status, body, err := c.do(req, EndpointIsAuthenticated)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, nil
	}

	var authenticated bool
	if err := json.Unmarshal(body, &authenticated); err != nil {
		return false, nil
	}
	return authenticated, nil
}

type verifyOTPRequest struct {
	OTP string `json:"otp"`
}

// VerifyOTP submits the email verification code. token may be empty.
// It returns the 2xx status the backend answered with.
func (c *Client) VerifyOTP(ctx context.Context, token, otp string) (int, error) {
	req, err := c.newRequest(ctx, http.MethodPost, EndpointVerifyOTP, token, verifyOTPRequest{OTP: otp})
	if err != nil {
		return 0, err
	}

	status, _, err := c.do(req, EndpointVerifyOTP)
	return status, err
}

// newRequest builds a request for endpoint, authorized with token when non-empty
func (c *Client) newRequest(ctx context.Context, method, endpoint, token string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(endpoint).String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if header := BearerHeader(token); header != "" {
		req.Header.Set("Authorization", header)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	return req, nil
}

// do sends req, records metrics and returns status and body of a 2xx answer
func (c *Client) do(req *http.Request, endpoint string) (int, []byte, error) {
	ctx := req.Context()
	log := observability.FromContext(observability.WithRequestID(ctx, req.Header.Get("X-Request-ID")))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(endpoint, "error", start)
		log.Debug("backend request failed",
			slog.String("method", req.Method),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return 0, nil, fmt.Errorf("%s %s: %w", req.Method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	observe(endpoint, strconv.Itoa(resp.StatusCode), start)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	log.Debug("backend request completed",
		slog.String("method", req.Method),
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if c.contract != nil {
		if err := c.contract.ValidateResponse(ctx, req, endpoint, resp.StatusCode, resp.Header, body); err != nil {
			return resp.StatusCode, nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	return resp.StatusCode, body, nil
}

// BearerHeader returns the Authorization header value for token, or "" when
// token is empty
func BearerHeader(token string) string {
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// errorMessage extracts a human readable message from an error body
func errorMessage(body []byte) string {
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	if errResp.Message != "" {
		return errResp.Message
	}
	return errResp.Error
}

func observe(endpoint, status string, start time.Time) {
	observability.APIRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	observability.APIRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

