// Package submission drives one waitlist form through its submit cycle:
// validate, send a single request, and settle on success or failure.
package submission

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/launchlist/waitlist-service/internal/waitlist"
)

// State is the controller's position in the submit cycle.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// User-visible notices. Configuration and transport failures share one message.
const (
	MsgJoined        = "You have joined our waiting list."
	MsgJoinFailed    = "Something went wrong while joining. Please try again."
	MsgFixFieldError = "Please fix the highlighted fields."
)

var (
	ErrInFlight        = errors.New("submission already in flight")
	ErrCompleted       = errors.New("form already submitted; reset to submit again")
	ErrAlreadyResolved = errors.New("attempt already resolved")
)

// Outcome is the settled result of an attempt: a payload or an error.
type Outcome struct {
	Payload *Payload
	Err     error
}

// Attempt is a single submit-and-await cycle. It sends at most one request.
type Attempt struct {
	entry       waitlist.Entry
	submittedAt time.Time
	sender      Sender

	once    sync.Once
	outcome Outcome
}

// Entry returns the accepted entry being submitted.
func (a *Attempt) Entry() waitlist.Entry { return a.entry }

// SubmittedAt returns the instant stamped on the request.
func (a *Attempt) SubmittedAt() time.Time { return a.submittedAt }

// Do sends the request and blocks until it completes. Later calls return the
// first outcome without sending again.
func (a *Attempt) Do() Outcome {
	a.once.Do(func() {
		payload, err := a.sender.Send(a.entry, a.submittedAt)
		a.outcome = Outcome{Payload: payload, Err: err}
	})
	return a.outcome
}

// Controller owns the form values and the state machine for one form.
type Controller struct {
	sender   Sender
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   State
	values  waitlist.Candidate
	errs    waitlist.FieldErrors
	current *Attempt
	payload *Payload
	lastErr error
}

// Option customizes a Controller.
type Option func(*Controller)

// WithNotifier sets the receiver of user-visible notices.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController returns an Idle controller with empty values.
func NewController(sender Sender, opts ...Option) *Controller {
	c := &Controller{
		sender:   sender,
		notifier: NotifierFunc(func(Notice) {}),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Values returns the current form values.
func (c *Controller) Values() waitlist.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values
}

// FieldErrors returns the field errors from the last rejected submit, or nil.
func (c *Controller) FieldErrors() waitlist.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errs == nil {
		return nil
	}
	out := make(waitlist.FieldErrors, len(c.errs))
	for k, v := range c.errs {
		out[k] = v
	}
	return out
}

// Payload returns the success payload once Succeeded.
func (c *Controller) Payload() *Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payload
}

// LastError returns the diagnostic error of the last failed attempt.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetName updates the name value. Edits are ignored while Pending or Succeeded.
func (c *Controller) SetName(v string) { c.edit(func(cand *waitlist.Candidate) { cand.Name = v }) }

// SetEmail updates the email value.
func (c *Controller) SetEmail(v string) { c.edit(func(cand *waitlist.Candidate) { cand.Email = v }) }

// SetAgreeToTerms updates the agreement value.
func (c *Controller) SetAgreeToTerms(v bool) {
	c.edit(func(cand *waitlist.Candidate) { cand.AgreeToTerms = v })
}

// SetValues replaces all form values at once.
func (c *Controller) SetValues(v waitlist.Candidate) {
	c.edit(func(cand *waitlist.Candidate) { *cand = v })
}

func (c *Controller) edit(fn func(*waitlist.Candidate)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePending || c.state == StateSucceeded {
		return
	}
	fn(&c.values)
}

// Begin validates the current values and, if they are acceptable, moves to
// Pending and returns the attempt to run. A rejection returns the
// waitlist.FieldErrors and leaves the state unchanged.
func (c *Controller) Begin() (*Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePending:
		return nil, ErrInFlight
	case StateSucceeded:
		return nil, ErrCompleted
	}

	entry, errs := waitlist.Validate(c.values)
	if errs != nil {
		c.errs = errs
		return nil, errs
	}

	c.errs = nil
	c.state = StatePending
	c.current = &Attempt{
		entry:       entry,
		submittedAt: c.now(),
		sender:      c.sender,
	}
	return c.current, nil
}

// Resolve applies the terminal transition for a. Each attempt resolves once.
func (c *Controller) Resolve(a *Attempt, o Outcome) error {
	c.mu.Lock()
	if a == nil || a != c.current || c.state != StatePending {
		c.mu.Unlock()
		return ErrAlreadyResolved
	}
	c.current = nil

	var notice Notice
	if o.Err == nil {
		c.state = StateSucceeded
		c.values = waitlist.Candidate{}
		c.payload = o.Payload
		c.lastErr = nil
		notice = Notice{Kind: NoticeSuccess, Message: MsgJoined}
	} else {
		c.state = StateFailed
		c.lastErr = o.Err
		notice = Notice{Kind: NoticeError, Message: MsgJoinFailed}
	}
	c.mu.Unlock()

	if o.Err != nil {
		c.logFailure(a, o.Err)
	} else {
		c.logger.Info("waitlist submission accepted", zap.Time("submitted_at", a.submittedAt))
	}
	c.notifier.Notify(notice)
	return nil
}

// Submit runs a whole attempt synchronously. It returns the field errors on
// rejection, ErrInFlight or ErrCompleted when the state forbids submitting, or
// the attempt's error after a failure.
func (c *Controller) Submit() error {
	a, err := c.Begin()
	if err != nil {
		return err
	}
	o := a.Do()
	if err := c.Resolve(a, o); err != nil {
		return err
	}
	return o.Err
}

// Reset returns a Succeeded or Failed form to Idle with empty values.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePending {
		return
	}
	c.state = StateIdle
	c.values = waitlist.Candidate{}
	c.errs = nil
	c.payload = nil
	c.lastErr = nil
}

func (c *Controller) logFailure(a *Attempt, err error) {
	fields := []zap.Field{zap.Error(err), zap.Time("submitted_at", a.submittedAt)}
	var endpointErr *EndpointError
	if errors.As(err, &endpointErr) {
		fields = append(fields,
			zap.Int("status", endpointErr.StatusCode),
			zap.String("response_body", endpointErr.Body))
	}
	if errors.Is(err, ErrEndpointNotConfigured) {
		c.logger.Error("waitlist endpoint address missing", fields...)
		return
	}
	c.logger.Error("waitlist submission failed", fields...)
}
