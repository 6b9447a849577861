// Package queue defines message payloads exchanged over the message broker.
package queue

// Auth change-notification event types. Consumers treat unknown types
// as a no-op so the set can grow without breaking old consumers.
const (
	EventSignedIn  = "SIGNED_IN"
	EventSignedOut = "SIGNED_OUT"
)

// AuthEvent is published on every sign-in and sign-out. It is the
// durable form of the session change-notification stream: downstream
// consumers audit-log or react to session changes without querying the
// primary database.
type AuthEvent struct {
	Type     string `json:"type"`      // SIGNED_IN or SIGNED_OUT
	UserID   uint64 `json:"user_id"`   // subject of the session change
	Email    string `json:"email"`     // email at event time
	ClientID string `json:"client_id"` // tenant identifier, empty if no profile yet
	At       string `json:"at"`        // RFC3339 UTC timestamp
}

// RequestStatusEvent is published when an admin advances a request
// through its lifecycle, so notification consumers can tell clients
// their brief moved forward.
type RequestStatusEvent struct {
	RequestID string `json:"request_id"`
	UserID    uint64 `json:"user_id"`
	Title     string `json:"title"`
	From      string `json:"from"`
	To        string `json:"to"`
	At        string `json:"at"`
}
