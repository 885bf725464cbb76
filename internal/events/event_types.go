package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEntryJoined EventType = "waitlist_entry_joined"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntryID   string      `json:"entry_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EntryJoinedPayload payload.
type EntryJoinedPayload struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submitted_at"`
}
