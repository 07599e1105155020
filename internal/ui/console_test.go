package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"authfort-cli/internal/domain"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil)

	c.Success("OTP verified successfully!")
	c.Error("Invalid OTP")

	assert.Equal(t, "✓ OTP verified successfully!\n✗ Invalid OTP\n", buf.String())
}

func TestPrintSession(t *testing.T) {
	tests := []struct {
		name    string
		session domain.Session
		want    []string
	}{
		{
			name:    "anonymous",
			session: domain.Session{},
			want:    []string{"Not logged in\n"},
		},
		{
			name:    "rejected token",
			session: domain.Session{Token: "abc"},
			want:    []string{"stored token was not accepted"},
		},
		{
			name: "verified user",
			session: domain.Session{
				Token:      "abc",
				IsLoggedIn: true,
				User:       &domain.Profile{UserID: "u-1", Name: "Ada", Email: "ada@example.com", IsAccountVerified: true},
			},
			want: []string{"Logged in as Ada <ada@example.com>", "user id: u-1", "email:   verified"},
		},
		{
			name: "unverified user",
			session: domain.Session{
				Token:      "abc",
				IsLoggedIn: true,
				User:       &domain.Profile{UserID: "u-2", Name: "Bob", Email: "bob@example.com"},
			},
			want: []string{"email:   unverified"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintSession(NewConsole(&buf, nil), tt.session)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestRouter(t *testing.T) {
	r := NewRouter(domain.RouteEmailVerify)
	rendered := 0
	r.Handle(domain.RouteHome, func() { rendered++ })

	assert.False(t, r.AtHome())

	r.Navigate(domain.RouteHome)
	r.Navigate(domain.RouteHome)

	assert.True(t, r.AtHome())
	assert.Equal(t, 1, rendered, "navigating to the current route renders nothing")
	assert.Equal(t, domain.RouteHome, r.Current())
}

func TestRenderSlots(t *testing.T) {
	assert.Equal(t, " 1  2 [_] _  _  _ ", RenderSlots([]string{"1", "2", "", "", "", ""}, 2))
	assert.Equal(t, " 1  2  3  4  5 [6]", RenderSlots([]string{"1", "2", "3", "4", "5", "6"}, 5))
}
