package client

import "github.com/google/uuid"

// Session is a per-tab client identity, generated once at startup. Its
// only job is to let the client recognize and discard events caused by
// its own writes. It is passed explicitly into every mutating call and
// every subscription, never held as ambient global state.
type Session struct {
	ClientID string
}

// NewSession creates a session with a fresh client id.
func NewSession() Session {
	return Session{ClientID: uuid.New().String()}
}
