package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/launchlist/waitlist-service/internal/config"
	"github.com/launchlist/waitlist-service/internal/domain"
	"github.com/launchlist/waitlist-service/internal/events"
	"github.com/launchlist/waitlist-service/internal/observability"
	"github.com/launchlist/waitlist-service/internal/repository"
	"github.com/launchlist/waitlist-service/internal/waitlist"
	apperrors "github.com/launchlist/waitlist-service/pkg/util/errorutil"
)

type fixedGuard struct {
	allowed bool
	err     error
}

func (g fixedGuard) Allow(context.Context, string) (bool, error) { return g.allowed, g.err }

type failingRepo struct {
	repository.EntryRepository
	err error
}

func (r failingRepo) GetByEmail(context.Context, string) (*domain.WaitlistEntry, error) {
	return nil, r.err
}

func newTestService(t *testing.T, guard repository.JoinGuard) (*WaitlistService, events.Dispatcher, *observability.Metrics) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	svc := NewWaitlistService(WaitlistDependencies{
		Entries:    repository.NewMemoryEntryRepository(),
		Guard:      guard,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     zap.NewNop(),
	})
	return svc, dispatcher, metrics
}

func domainErr(t *testing.T, err error) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	return de
}

func TestWaitlistService_Join(t *testing.T) {
	svc, dispatcher, metrics := newTestService(t, nil)
	var published []events.Event
	dispatcher.Subscribe(events.EventEntryJoined, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	entry, err := svc.Join(context.Background(), JoinInput{
		Name:      "Alice",
		Email:     "Alice@Example.com",
		Timestamp: "2026-10-17T09:30:00.123Z",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "alice@example.com", entry.Email)
	assert.Equal(t, time.Date(2026, 10, 17, 9, 30, 0, 123000000, time.UTC), entry.SubmittedAt)
	require.Len(t, published, 1)
	assert.Equal(t, entry.ID, published[0].EntryID)
	assert.Equal(t, "alice@example.com", published[0].Payload.(events.EntryJoinedPayload).Email)
	assert.Equal(t, int64(1), metrics.Snapshot().Joins[observability.OutcomeAccepted])

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWaitlistService_Join_Validation(t *testing.T) {
	svc, _, metrics := newTestService(t, nil)

	_, err := svc.Join(context.Background(), JoinInput{Name: "A", Email: "nope"})

	de := domainErr(t, err)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, map[string]any{
		"name":  waitlist.MsgNameTooShort,
		"email": waitlist.MsgEmailInvalid,
	}, de.Details)
	assert.Equal(t, int64(1), metrics.Snapshot().Joins[observability.OutcomeRejected])

	_, err = svc.Join(context.Background(), JoinInput{Name: "Alice", Email: "a@example.com", Timestamp: "yesterday"})
	assert.Equal(t, map[string]any{"timestamp": "Invalid timestamp"}, domainErr(t, err).Details)
}

func TestWaitlistService_Join_Duplicate(t *testing.T) {
	svc, _, metrics := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Join(ctx, JoinInput{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, JoinInput{Name: "Alice Again", Email: "ALICE@example.com"})

	assert.Equal(t, http.StatusConflict, domainErr(t, err).HTTPStatus)
	assert.Equal(t, int64(1), metrics.Snapshot().Joins[observability.OutcomeDuplicate])
}

func TestWaitlistService_Join_RateLimited(t *testing.T) {
	svc, _, _ := newTestService(t, fixedGuard{allowed: false})

	_, err := svc.Join(context.Background(), JoinInput{Name: "Alice", Email: "alice@example.com", ClientKey: "1.2.3.4"})

	assert.Equal(t, http.StatusTooManyRequests, domainErr(t, err).HTTPStatus)
}

func TestWaitlistService_Join_LimiterOutageAllows(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewWaitlistService(WaitlistDependencies{
		Entries: repository.NewMemoryEntryRepository(),
		Guard:   fixedGuard{err: errors.New("redis down")},
		Logger:  zap.New(core),
	})

	_, err := svc.Join(context.Background(), JoinInput{Name: "Alice", Email: "alice@example.com"})

	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("rate limiter unavailable").Len())
}

func TestWaitlistService_Join_RepositoryFailure(t *testing.T) {
	svc := NewWaitlistService(WaitlistDependencies{
		Entries: failingRepo{err: errors.New("connection reset")},
	})

	_, err := svc.Join(context.Background(), JoinInput{Name: "Alice", Email: "alice@example.com"})

	assert.Equal(t, http.StatusInternalServerError, domainErr(t, err).HTTPStatus)
}

func TestWaitlistService_List(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Join(ctx, JoinInput{Name: "Person", Email: email})
		require.NoError(t, err)
	}

	entries, total, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, entries, 2)

	entries, _, err = svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "defaults applied")
}

func TestAuthService_LoginAdmin(t *testing.T) {
	hash, err := bcryptHash("correct horse")
	require.NoError(t, err)
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:         "secret",
		AdminEmail:        "Admin@Example.com",
		AdminPasswordHash: hash,
	})

	session, err := svc.LoginAdmin(context.Background(), "admin@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", session.Email)
	assert.True(t, session.ExpiresAt.After(time.Now()))
	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectTypeAdmin, claims.Subject)

	_, err = svc.LoginAdmin(context.Background(), "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.LoginAdmin(context.Background(), "other@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	unconfigured := NewAuthService(config.AuthConfig{JWTSecret: "secret"})
	_, err = unconfigured.LoginAdmin(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNotificationService_HandlesEntryJoined(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	notifier := NewNotificationService(zap.New(core), config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "https://hooks.example.com/waitlist",
	})

	err := notifier.Handle(context.Background(), events.Event{
		Type:    events.EventEntryJoined,
		EntryID: "e1",
		Payload: events.EntryJoinedPayload{Email: "alice@example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("EntryJoined").Len())
	assert.Equal(t, 1, logs.FilterMessage("sendWelcomeEmailStub").Len())
	assert.Equal(t, 1, logs.FilterMessage("sendWebhookNotificationStub").Len())
}

func TestNotificationService_IgnoresUnknownEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	notifier := NewNotificationService(zap.New(core), config.NotificationConfig{})

	err := notifier.Handle(context.Background(), events.Event{Type: "something_else"})

	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}
