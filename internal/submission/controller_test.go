package submission

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchlist/waitlist-service/internal/waitlist"
)

type stubSender struct {
	calls   int32
	release chan struct{}
	payload *Payload
	err     error
}

func (s *stubSender) Send(entry waitlist.Entry, at time.Time) (*Payload, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.release != nil {
		<-s.release
	}
	return s.payload, s.err
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func fill(c *Controller, name, email string, agree bool) {
	c.SetName(name)
	c.SetEmail(email)
	c.SetAgreeToTerms(agree)
}

func TestController_StartsIdle(t *testing.T) {
	c := NewController(&stubSender{})

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, waitlist.Candidate{}, c.Values())
	assert.Nil(t, c.FieldErrors())
	assert.Nil(t, c.Payload())
}

func TestController_Submit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"welcome","success":true}`))
	}))
	defer srv.Close()

	notes := &recordingNotifier{}
	c := NewController(NewClient(Endpoint{URL: srv.URL}, nil), WithNotifier(notes))
	fill(c, "Al", "al@example.com", true)

	require.NoError(t, c.Submit())

	assert.Equal(t, StateSucceeded, c.State())
	assert.Equal(t, waitlist.Candidate{}, c.Values(), "values cleared on success")
	require.NotNil(t, c.Payload())
	assert.Equal(t, "welcome", c.Payload().Message)
	assert.Equal(t, []Notice{{Kind: NoticeSuccess, Message: MsgJoined}}, notes.all())
}

func TestController_Submit_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		values waitlist.Candidate
		field  waitlist.Field
		msg    string
	}{
		{"empty name", waitlist.Candidate{Name: "", Email: "al@example.com", AgreeToTerms: true}, waitlist.FieldName, waitlist.MsgNameRequired},
		{"bad email", waitlist.Candidate{Name: "Alice", Email: "not-an-email", AgreeToTerms: true}, waitlist.FieldEmail, waitlist.MsgEmailInvalid},
		{"terms", waitlist.Candidate{Name: "Alice", Email: "alice@example.com"}, waitlist.FieldAgreeToTerms, waitlist.MsgTermsRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &stubSender{}
			notes := &recordingNotifier{}
			c := NewController(sender, WithNotifier(notes))
			c.SetValues(tt.values)

			err := c.Submit()

			var fe waitlist.FieldErrors
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.msg, fe[tt.field])
			assert.Equal(t, tt.msg, c.FieldErrors()[tt.field])
			assert.Equal(t, StateIdle, c.State())
			assert.Equal(t, tt.values, c.Values())
			assert.Zero(t, atomic.LoadInt32(&sender.calls), "no request on rejection")
			assert.Empty(t, notes.all())
		})
	}
}

func TestController_Submit_EndpointFailureKeepsValues(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	notes := &recordingNotifier{}
	c := NewController(NewClient(Endpoint{URL: srv.URL}, nil), WithNotifier(notes))
	fill(c, "Alice", "alice@example.com", true)

	err := c.Submit()

	var endpointErr *EndpointError
	require.True(t, errors.As(err, &endpointErr))
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, waitlist.Candidate{Name: "Alice", Email: "alice@example.com", AgreeToTerms: true}, c.Values())
	assert.Equal(t, []Notice{{Kind: NoticeError, Message: MsgJoinFailed}}, notes.all())
	assert.Equal(t, err, c.LastError())

	require.NoError(t, c.Submit(), "resubmission allowed after failure")
	assert.Equal(t, StateSucceeded, c.State())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestController_Submit_NoEndpoint(t *testing.T) {
	notes := &recordingNotifier{}
	c := NewController(NewClient(Endpoint{}, nil), WithNotifier(notes))
	fill(c, "Alice", "alice@example.com", true)

	err := c.Submit()

	assert.ErrorIs(t, err, ErrEndpointNotConfigured)
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, "Alice", c.Values().Name)
	assert.Equal(t, []Notice{{Kind: NoticeError, Message: MsgJoinFailed}}, notes.all())
}

func TestController_OneRequestInFlight(t *testing.T) {
	sender := &stubSender{release: make(chan struct{}), payload: &Payload{Success: true}}
	c := NewController(sender)
	fill(c, "Alice", "alice@example.com", true)

	a, err := c.Begin()
	require.NoError(t, err)
	assert.Equal(t, StatePending, c.State())

	done := make(chan Outcome)
	go func() { done <- a.Do() }()

	for i := 0; i < 5; i++ {
		again, err := c.Begin()
		assert.Nil(t, again)
		assert.ErrorIs(t, err, ErrInFlight)
	}
	assert.ErrorIs(t, c.Submit(), ErrInFlight)

	c.SetName("Mallory")
	assert.Equal(t, "Alice", c.Values().Name, "values locked while pending")

	close(sender.release)
	o := <-done
	require.NoError(t, c.Resolve(a, o))

	assert.Equal(t, int32(1), atomic.LoadInt32(&sender.calls))
	assert.Equal(t, StateSucceeded, c.State())
}

func TestController_ConcurrentSubmits(t *testing.T) {
	sender := &stubSender{release: make(chan struct{}), payload: &Payload{Success: true}}
	c := NewController(sender)
	fill(c, "Alice", "alice@example.com", true)

	var wg sync.WaitGroup
	var inFlight int32
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Submit()
			if errors.Is(err, ErrInFlight) {
				atomic.AddInt32(&inFlight, 1)
			}
			results <- err
		}()
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&inFlight) == 9
	}, time.Second, 5*time.Millisecond)
	close(sender.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&sender.calls))
}

func TestController_ResolveOnce(t *testing.T) {
	notes := &recordingNotifier{}
	c := NewController(&stubSender{payload: &Payload{}}, WithNotifier(notes))
	fill(c, "Alice", "alice@example.com", true)

	a, err := c.Begin()
	require.NoError(t, err)
	o := a.Do()

	require.NoError(t, c.Resolve(a, o))
	assert.ErrorIs(t, c.Resolve(a, o), ErrAlreadyResolved)
	assert.ErrorIs(t, c.Resolve(nil, o), ErrAlreadyResolved)
	assert.Len(t, notes.all(), 1)
}

func TestAttempt_DoSendsOnce(t *testing.T) {
	sender := &stubSender{payload: &Payload{Message: "x"}}
	c := NewController(sender)
	fill(c, "Alice", "alice@example.com", true)

	a, err := c.Begin()
	require.NoError(t, err)

	first := a.Do()
	second := a.Do()

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sender.calls))
}

func TestController_SucceededRequiresReset(t *testing.T) {
	c := NewController(&stubSender{payload: &Payload{}})
	fill(c, "Alice", "alice@example.com", true)
	require.NoError(t, c.Submit())

	assert.ErrorIs(t, c.Submit(), ErrCompleted)
	c.SetName("ignored")
	assert.Equal(t, "", c.Values().Name)

	c.Reset()
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Payload())
	fill(c, "Bob", "bob@example.com", true)
	require.NoError(t, c.Submit())
}

func TestController_ClockStampsAttempt(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewController(&stubSender{}, WithClock(func() time.Time { return at }))
	fill(c, "Alice", "alice@example.com", true)

	a, err := c.Begin()
	require.NoError(t, err)
	assert.Equal(t, at, a.SubmittedAt())
	assert.Equal(t, waitlist.Entry{Name: "Alice", Email: "alice@example.com", AgreeToTerms: true}, a.Entry())
}

func TestController_ErrorsClearedOnAcceptedSubmit(t *testing.T) {
	c := NewController(&stubSender{payload: &Payload{}})
	fill(c, "", "alice@example.com", true)
	require.Error(t, c.Submit())
	require.NotNil(t, c.FieldErrors())

	c.SetName("Alice")
	require.NoError(t, c.Submit())
	assert.Nil(t, c.FieldErrors())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "succeeded", StateSucceeded.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}
