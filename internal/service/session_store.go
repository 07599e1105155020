package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"authfort-cli/internal/authapi"
	"authfort-cli/internal/domain"
	"authfort-cli/internal/observability"
)

// AuthAPI is the backend surface the session layer depends on
type AuthAPI interface {
	Profile(ctx context.Context, token string) (*domain.Profile, error)
	IsAuthenticated(ctx context.Context, token string) (bool, error)
	VerifyOTP(ctx context.Context, token, otp string) (int, error)
}

// Notifier shows short user-facing messages
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Navigator switches the client to another route
type Navigator interface {
	Navigate(route string)
}

// SessionStore is the single source of truth for authentication state.
// It is safe for concurrent use; listeners run outside the lock.
type SessionStore struct {
	tokens   domain.TokenRepository
	api      AuthAPI
	notifier Notifier

	mu    sync.RWMutex
	state domain.Session

	listenersMu sync.Mutex
	listeners   map[int]func(domain.Session)
	nextID      int
}

// NewSessionStore creates a store and loads the persisted token synchronously.
// A token that cannot be read is logged and treated as absent.
func NewSessionStore(ctx context.Context, tokens domain.TokenRepository, api AuthAPI, notifier Notifier) *SessionStore {
	s := &SessionStore{
		tokens:    tokens,
		api:       api,
		notifier:  notifier,
		listeners: make(map[int]func(domain.Session)),
	}

	token, err := tokens.Get(ctx)
	switch {
	case err == nil:
		s.state.Token = token
	case errors.Is(err, domain.ErrTokenNotFound):
	default:
		observability.FromContext(ctx).Warn("failed to load persisted token", slog.String("error", err.Error()))
	}

	return s
}

// Start runs the initial authentication check for the persisted token
func (s *SessionStore) Start(ctx context.Context) error {
	return s.RefreshAuthState(ctx)
}

// Snapshot returns a copy of the current state
func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.state)
}

// Token returns the current bearer token, or "" when anonymous
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// AuthHeader returns the Authorization header derived from the current token
func (s *SessionStore) AuthHeader() string {
	return authapi.BearerHeader(s.Token())
}

// Subscribe registers fn to be called with every changed snapshot.
// The returned function removes the listener.
func (s *SessionStore) Subscribe(fn func(domain.Session)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// SetToken persists token and, when it changed, re-checks authentication
func (s *SessionStore) SetToken(ctx context.Context, token string) error {
	changed, err := s.setToken(ctx, token)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.RefreshAuthState(ctx)
}

// FetchUserData loads the profile for authToken, or for the stored token when
// authToken is empty. Failures are shown to the user and end the session.
// The result only applies while authToken is still the current token.
func (s *SessionStore) FetchUserData(ctx context.Context, authToken string) error {
	if authToken == "" {
		authToken = s.Token()
	}
	if authToken == "" {
		s.setLoggedOut()
		return domain.ErrNoToken
	}

	profile, err := s.api.Profile(ctx, authToken)
	if err != nil {
		msg, ok := authapi.ServerMessage(err)
		if !ok {
			msg = err.Error()
		}
		s.notifier.Error(msg)
		s.setLoggedOutFor(authToken)
		return fmt.Errorf("fetch user data: %w", err)
	}

	s.setLoggedIn(authToken, profile)
	return nil
}

// RefreshAuthState asks the backend whether the stored token is still valid
// and loads the profile if so. Transport errors are logged, not shown.
func (s *SessionStore) RefreshAuthState(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		s.setLoggedOut()
		return nil
	}

	ok, err := s.api.IsAuthenticated(ctx, token)
	if err != nil {
		observability.FromContext(ctx).Error("authentication check failed", slog.String("error", err.Error()))
		s.setLoggedOut()
		return fmt.Errorf("refresh auth state: %w", err)
	}
	if !ok {
		s.setLoggedOut()
		return nil
	}

	return s.FetchUserData(ctx, token)
}

// Login stores newToken and loads the profile with exactly that token.
// A changed token is then re-checked like any other token change.
func (s *SessionStore) Login(ctx context.Context, newToken string) error {
	if newToken == "" {
		return domain.ErrNoToken
	}
	changed, err := s.setToken(ctx, newToken)
	if err != nil {
		return err
	}

	err = s.FetchUserData(ctx, newToken)
	if !changed {
		return err
	}
	if refreshErr := s.RefreshAuthState(ctx); err == nil {
		err = refreshErr
	}
	return err
}

// Logout resets the session. Memory is cleared even when removing the
// persisted token fails; that failure is still returned.
func (s *SessionStore) Logout(ctx context.Context) error {
	var err error
	if removeErr := s.tokens.Remove(ctx); removeErr != nil {
		err = fmt.Errorf("%w: %w", domain.ErrPersistToken, removeErr)
	}
	s.update(func(st *domain.Session) {
		*st = domain.Session{}
	})
	return err
}

// setToken persists token first, then commits it to memory
func (s *SessionStore) setToken(ctx context.Context, token string) (bool, error) {
	var err error
	if token == "" {
		err = s.tokens.Remove(ctx)
	} else {
		err = s.tokens.Set(ctx, token)
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrPersistToken, err)
	}

	changed := s.update(func(st *domain.Session) {
		st.Token = token
		if token == "" {
			st.IsLoggedIn = false
			st.User = nil
		}
	})
	return changed, nil
}

func (s *SessionStore) setLoggedOut() {
	s.update(func(st *domain.Session) {
		st.IsLoggedIn = false
		st.User = nil
	})
}

// setLoggedOutFor ends the session only if token is still current
func (s *SessionStore) setLoggedOutFor(token string) {
	s.update(func(st *domain.Session) {
		if st.Token != token {
			return
		}
		st.IsLoggedIn = false
		st.User = nil
	})
}

func (s *SessionStore) setLoggedIn(token string, profile *domain.Profile) {
	s.update(func(st *domain.Session) {
		// The token may have changed or been cleared while the profile was loading
		if st.Token != token {
			return
		}
		st.IsLoggedIn = true
		st.User = profile
	})
}

// update applies fn under the lock and notifies listeners if the state changed
func (s *SessionStore) update(fn func(st *domain.Session)) bool {
	s.mu.Lock()
	before := copySession(s.state)
	fn(&s.state)
	after := copySession(s.state)
	s.mu.Unlock()

	if sessionsEqual(before, after) {
		return false
	}

	if after.IsLoggedIn {
		observability.SessionLoggedIn.Set(1)
	} else {
		observability.SessionLoggedIn.Set(0)
	}

	s.listenersMu.Lock()
	listeners := make([]func(domain.Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(copySession(after))
	}
	return true
}

func copySession(st domain.Session) domain.Session {
	if st.User != nil {
		user := *st.User
		st.User = &user
	}
	return st
}

func sessionsEqual(a, b domain.Session) bool {
	if a.Token != b.Token || a.IsLoggedIn != b.IsLoggedIn {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == nil && b.User == nil
	}
	return *a.User == *b.User
}
