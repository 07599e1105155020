package domain

import (
	"context"
	"errors"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrNoToken       = errors.New("no auth token")
	ErrPersistToken  = errors.New("persist token")
)

// Session is a point-in-time copy of the client's authentication state
type Session struct {
	Token      string   `json:"-"`
	IsLoggedIn bool     `json:"is_logged_in"`
	User       *Profile `json:"user,omitempty"`
}

// HasToken reports whether the session carries a bearer token
func (s Session) HasToken() bool {
	return s.Token != ""
}

// TokenRepository persists the bearer token between runs.
// Get returns ErrTokenNotFound when nothing is stored.
type TokenRepository interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}
