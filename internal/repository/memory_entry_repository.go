package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/launchlist/waitlist-service/internal/domain"
)

// memoryEntryRepository keeps entries in process memory. It backs the
// service when no Postgres DSN is configured.
type memoryEntryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]domain.WaitlistEntry
	now     func() time.Time
}

// NewMemoryEntryRepository returns an empty in-memory repository.
func NewMemoryEntryRepository() EntryRepository {
	return &memoryEntryRepository{
		byEmail: make(map[string]domain.WaitlistEntry),
		now:     time.Now,
	}
}

func (r *memoryEntryRepository) Create(_ context.Context, entry *domain.WaitlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[entry.Email]; exists {
		return ErrDuplicateEmail
	}
	entry.CreatedAt = r.now()
	r.byEmail[entry.Email] = *entry
	return nil
}

func (r *memoryEntryRepository) GetByEmail(_ context.Context, email string) (*domain.WaitlistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &entry, nil
}

func (r *memoryEntryRepository) List(_ context.Context, limit, offset int) ([]domain.WaitlistEntry, error) {
	r.mu.RLock()
	all := make([]domain.WaitlistEntry, 0, len(r.byEmail))
	for _, entry := range r.byEmail {
		all = append(all, entry)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []domain.WaitlistEntry{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryEntryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail), nil
}
