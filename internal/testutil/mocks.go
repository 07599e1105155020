// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the authfort client.
package testutil

import (
	"context"
	"errors"
	"sync"

	"authfort-cli/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockTransport      = errors.New("mock: connection refused")
)

// MockTokenRepository implements domain.TokenRepository in memory
type MockTokenRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	GetFunc    func(ctx context.Context) (string, error)
	SetFunc    func(ctx context.Context, token string) error
	RemoveFunc func(ctx context.Context) error

	// In-memory storage for simple tests
	Token    string
	HasToken bool

	SetCalls    []string
	RemoveCalls int
}

// NewMockTokenRepository creates a repository, optionally holding a token
func NewMockTokenRepository(token string) *MockTokenRepository {
	return &MockTokenRepository{Token: token, HasToken: token != ""}
}

func (m *MockTokenRepository) Get(ctx context.Context) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.HasToken {
		return "", domain.ErrTokenNotFound
	}
	return m.Token, nil
}

func (m *MockTokenRepository) Set(ctx context.Context, token string) error {
	m.mu.Lock()
	m.SetCalls = append(m.SetCalls, token)
	m.mu.Unlock()

	if m.SetFunc != nil {
		return m.SetFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Token = token
	m.HasToken = true
	return nil
}

func (m *MockTokenRepository) Remove(ctx context.Context) error {
	m.mu.Lock()
	m.RemoveCalls++
	m.mu.Unlock()

	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Token = ""
	m.HasToken = false
	return nil
}

// Stored returns the persisted token and whether an entry exists
func (m *MockTokenRepository) Stored() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Token, m.HasToken
}

// APICall records one call made against MockAuthAPI
type APICall struct {
	Method string
	Token  string
	OTP    string
}

// MockAuthAPI implements the backend client interfaces used by the service layer
type MockAuthAPI struct {
	mu sync.Mutex

	ProfileFunc         func(ctx context.Context, token string) (*domain.Profile, error)
	IsAuthenticatedFunc func(ctx context.Context, token string) (bool, error)
	VerifyOTPFunc       func(ctx context.Context, token, otp string) (int, error)

	Calls []APICall
}

// NewMockAuthAPI creates a MockAuthAPI with no behavior configured
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{}
}

func (m *MockAuthAPI) record(call APICall) {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	m.mu.Unlock()
}

func (m *MockAuthAPI) Profile(ctx context.Context, token string) (*domain.Profile, error) {
	m.record(APICall{Method: "Profile", Token: token})
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, token)
	}
	return nil, ErrMockNotImplemented
}

func (m *MockAuthAPI) IsAuthenticated(ctx context.Context, token string) (bool, error) {
	m.record(APICall{Method: "IsAuthenticated", Token: token})
	if m.IsAuthenticatedFunc != nil {
		return m.IsAuthenticatedFunc(ctx, token)
	}
	return false, ErrMockNotImplemented
}

func (m *MockAuthAPI) VerifyOTP(ctx context.Context, token, otp string) (int, error) {
	m.record(APICall{Method: "VerifyOTP", Token: token, OTP: otp})
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, token, otp)
	}
	return 0, ErrMockNotImplemented
}

// CallsTo returns the recorded calls of one method
func (m *MockAuthAPI) CallsTo(method string) []APICall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []APICall
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// TotalCalls returns the number of recorded calls
func (m *MockAuthAPI) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Notification is one message shown by RecordingNotifier
type Notification struct {
	Kind    string
	Message string
}

// RecordingNotifier collects success and error messages
type RecordingNotifier struct {
	mu    sync.Mutex
	Items []Notification
}

func (n *RecordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Items = append(n.Items, Notification{Kind: "success", Message: msg})
}

func (n *RecordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Items = append(n.Items, Notification{Kind: "error", Message: msg})
}

// Errors returns the error messages in order
func (n *RecordingNotifier) Errors() []string {
	return n.byKind("error")
}

// Successes returns the success messages in order
func (n *RecordingNotifier) Successes() []string {
	return n.byKind("success")
}

func (n *RecordingNotifier) byKind(kind string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []string
	for _, item := range n.Items {
		if item.Kind == kind {
			out = append(out, item.Message)
		}
	}
	return out
}

// RecordingNavigator collects navigation targets
type RecordingNavigator struct {
	mu     sync.Mutex
	Routes []string
}

func (n *RecordingNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Routes = append(n.Routes, route)
}

// Visited returns the routes navigated to, in order
func (n *RecordingNavigator) Visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Routes...)
}
