package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchlist/waitlist-service/internal/domain"
	"github.com/launchlist/waitlist-service/internal/events"
	"github.com/launchlist/waitlist-service/internal/observability"
	"github.com/launchlist/waitlist-service/internal/repository"
	"github.com/launchlist/waitlist-service/internal/waitlist"
	apperrors "github.com/launchlist/waitlist-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// JoinInput is an inbound join request.
type JoinInput struct {
	Name      string
	Email     string
	Timestamp string
	ClientKey string
}

// WaitlistService records waiting-list entries.
type WaitlistService struct {
	entries    repository.EntryRepository
	guard      repository.JoinGuard
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// WaitlistDependencies encapsulates collaborators for the waitlist service.
type WaitlistDependencies struct {
	Entries    repository.EntryRepository
	Guard      repository.JoinGuard
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewWaitlistService builds the service.
func NewWaitlistService(deps WaitlistDependencies) *WaitlistService {
	s := &WaitlistService{
		entries:    deps.Entries,
		guard:      deps.Guard,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
	if s.guard == nil {
		s.guard = repository.NewJoinGuard(nil, "", 0, 0)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Join validates and stores a new entry.
func (s *WaitlistService) Join(ctx context.Context, in JoinInput) (*domain.WaitlistEntry, error) {
	if errs := waitlist.ValidateContact(in.Name, in.Email); errs != nil {
		s.metrics.RecordJoin(observability.OutcomeRejected)
		return nil, apperrors.NewValidationError("invalid waitlist entry", errs.AsMap())
	}

	submittedAt, err := s.parseTimestamp(in.Timestamp)
	if err != nil {
		s.metrics.RecordJoin(observability.OutcomeRejected)
		return nil, apperrors.NewValidationError("invalid waitlist entry", map[string]any{
			"timestamp": "Invalid timestamp",
		})
	}

	allowed, err := s.guard.Allow(ctx, in.ClientKey)
	if err != nil {
		// Limiter outages must not block signups.
		s.logger.Warn("rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		s.metrics.RecordJoin(observability.OutcomeRateLimited)
		return nil, apperrors.NewTooManyRequests("too many join attempts, try again later")
	}

	email := NormalizeEmail(in.Email)
	if _, err := s.entries.GetByEmail(ctx, email); err == nil {
		s.metrics.RecordJoin(observability.OutcomeDuplicate)
		return nil, apperrors.NewConflict(repository.ErrDuplicateEmail.Error(), nil)
	} else if !repository.IsNotFound(err) {
		return nil, apperrors.NewInternalError(err)
	}

	entry := &domain.WaitlistEntry{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Email:       email,
		SubmittedAt: submittedAt,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.RecordJoin(observability.OutcomeDuplicate)
			return nil, apperrors.NewConflict(err.Error(), nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.RecordJoin(observability.OutcomeAccepted)

	s.publishJoined(ctx, entry)
	return entry, nil
}

// List returns a page of entries, newest first, and the total count.
func (s *WaitlistService) List(ctx context.Context, page, pageSize int) ([]domain.WaitlistEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	entries, err := s.entries.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	total, err := s.entries.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	return entries, total, nil
}

// Count returns the number of stored entries.
func (s *WaitlistService) Count(ctx context.Context) (int, error) {
	n, err := s.entries.Count(ctx)
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	return n, nil
}

// NormalizeEmail trims and lowercases an address for storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *WaitlistService) parseTimestamp(ts string) (time.Time, error) {
	if strings.TrimSpace(ts) == "" {
		return s.now().UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func (s *WaitlistService) publishJoined(ctx context.Context, entry *domain.WaitlistEntry) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventEntryJoined,
		EntryID:   entry.ID,
		Timestamp: s.now().UTC(),
		Payload: events.EntryJoinedPayload{
			Name:        entry.Name,
			Email:       entry.Email,
			SubmittedAt: entry.SubmittedAt,
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("entry joined handlers failed", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}
