package dto

import (
	"time"

	"github.com/launchlist/waitlist-service/internal/domain"
)

// JoinRequest is the body posted by the waitlist form.
type JoinRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

// EntryResponse represents a stored entry.
type EntryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// JoinResponse acknowledges an accepted entry.
type JoinResponse struct {
	Data    EntryResponse `json:"data"`
	Message string        `json:"message"`
	Success bool          `json:"success"`
}

// EntryListResponse is a page of entries.
type EntryListResponse struct {
	Data       []EntryResponse `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// Pagination metadata.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// CountResponse reports how many people joined.
type CountResponse struct {
	Count int `json:"count"`
}

// NewEntryResponse maps a domain entry.
func NewEntryResponse(e domain.WaitlistEntry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		Name:        e.Name,
		Email:       e.Email,
		SubmittedAt: e.SubmittedAt,
		CreatedAt:   e.CreatedAt,
	}
}
