package testutil

import (
	"fmt"
	"sync/atomic"

	"authfort-cli/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// ProfileOptions allows customizing profile fixture creation
type ProfileOptions struct {
	UserID     string
	Name       string
	Email      string
	IsVerified bool
}

// NewTestProfile creates an unverified profile with sensible defaults
func NewTestProfile(opts ...func(*ProfileOptions)) *domain.Profile {
	o := &ProfileOptions{
		UserID: nextID("user"),
	}
	o.Name = fmt.Sprintf("Test User %d", idCounter.Load())

	for _, opt := range opts {
		opt(o)
	}

	if o.Email == "" {
		o.Email = fmt.Sprintf("%s@example.com", o.UserID)
	}

	return &domain.Profile{
		UserID:            o.UserID,
		Name:              o.Name,
		Email:             o.Email,
		IsAccountVerified: o.IsVerified,
	}
}

// WithProfileID sets the user ID
func WithProfileID(id string) func(*ProfileOptions) {
	return func(o *ProfileOptions) {
		o.UserID = id
	}
}

// WithProfileName sets the display name
func WithProfileName(name string) func(*ProfileOptions) {
	return func(o *ProfileOptions) {
		o.Name = name
	}
}

// WithProfileEmail sets the email
func WithProfileEmail(email string) func(*ProfileOptions) {
	return func(o *ProfileOptions) {
		o.Email = email
	}
}

// Verified marks the account as verified
func Verified() func(*ProfileOptions) {
	return func(o *ProfileOptions) {
		o.IsVerified = true
	}
}

// NewTestToken returns a unique opaque bearer token
func NewTestToken() string {
	return nextID("tok")
}
