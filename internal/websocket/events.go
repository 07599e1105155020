package websocket

import (
	"encoding/json"
	"time"

	"authfort-cli/internal/domain"
)

// EventSession is the type of events carrying a session snapshot
const EventSession = "session"

// SessionEvent is the message pushed to subscribers when the session changes.
// The token itself is never sent.
type SessionEvent struct {
	Type       string          `json:"type"`
	IsLoggedIn bool            `json:"is_logged_in"`
	HasToken   bool            `json:"has_token"`
	User       *domain.Profile `json:"user,omitempty"`
	At         time.Time       `json:"at"`
}

// EncodeSessionEvent serializes st as a SessionEvent
func EncodeSessionEvent(st domain.Session) ([]byte, error) {
	return json.Marshal(SessionEvent{
		Type:       EventSession,
		IsLoggedIn: st.IsLoggedIn,
		HasToken:   st.HasToken(),
		User:       st.User,
		At:         time.Now().UTC(),
	})
}
