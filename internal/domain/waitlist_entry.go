package domain

import "time"

// WaitlistEntry is a stored waiting-list signup.
type WaitlistEntry struct {
	ID          string
	Name        string
	Email       string
	SubmittedAt time.Time
	CreatedAt   time.Time
}
