package tui

import (
	"bytes"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchlist/waitlist-service/internal/submission"
	"github.com/launchlist/waitlist-service/internal/waitlist"
)

type stubSender struct {
	err   error
	calls atomic.Int32
}

func (s *stubSender) Send(waitlist.Entry, time.Time) (*submission.Payload, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &submission.Payload{Message: "ok", Success: true}, nil
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = update(t, m, msg)
	}
	return m
}

// findAttempt runs the commands returned by a submit and picks out the
// finished attempt.
func findAttempt(t *testing.T, cmd tea.Cmd) attemptDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if done, ok := msg.(attemptDoneMsg); ok {
		return done
	}
	batch, ok := msg.(tea.BatchMsg)
	require.True(t, ok, "unexpected message %T", msg)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if done, ok := c().(attemptDoneMsg); ok {
			return done
		}
	}
	t.Fatal("no attempt in batch")
	return attemptDoneMsg{}
}

func fillValidForm(t *testing.T, m Model) Model {
	t.Helper()
	return press(t, m,
		runes("Al"), keyTab,
		runes("al@example.com"), keyTab,
		keySpace, keyTab,
	)
}

func TestModel_EmptySubmitShowsFieldErrors(t *testing.T) {
	sender := &stubSender{}
	m := NewModel(sender, Options{})

	m, _ = update(t, m, keyEnter)

	assert.Equal(t, submission.StateIdle, m.ctrl.State())
	assert.Equal(t, int32(0), sender.calls.Load())
	view := m.View()
	assert.Contains(t, view, waitlist.MsgNameRequired)
	assert.Contains(t, view, waitlist.MsgEmailRequired)
	assert.Contains(t, view, waitlist.MsgTermsRequired)
	assert.Contains(t, view, submission.MsgFixFieldError)
}

func TestModel_TypingUpdatesController(t *testing.T) {
	m := NewModel(&stubSender{}, Options{})

	m = fillValidForm(t, m)

	values := m.ctrl.Values()
	assert.Equal(t, "Al", values.Name)
	assert.Equal(t, "al@example.com", values.Email)
	assert.True(t, values.AgreeToTerms)
	assert.Equal(t, focusSubmit, m.focus)
	assert.Contains(t, m.View(), "[x]")
}

func TestModel_SubmitSuccess(t *testing.T) {
	sender := &stubSender{}
	m := NewModel(sender, Options{})
	m = fillValidForm(t, m)

	m, cmd := update(t, m, keyEnter)
	require.Equal(t, submission.StatePending, m.ctrl.State())
	assert.Contains(t, m.View(), "Joining...")

	// A second submit while pending sends nothing.
	m, again := update(t, m, keyEnter)
	assert.Nil(t, again)

	m, _ = update(t, m, findAttempt(t, cmd))

	assert.Equal(t, int32(1), sender.calls.Load())
	assert.Equal(t, submission.StateSucceeded, m.ctrl.State())
	assert.Empty(t, m.name.Value())
	assert.Empty(t, m.email.Value())
	view := m.View()
	assert.Contains(t, view, "Thank you!")
	assert.Contains(t, view, submission.MsgJoined)
}

func TestModel_SubmitFailureKeepsValues(t *testing.T) {
	sender := &stubSender{err: errors.New("boom")}
	m := NewModel(sender, Options{})
	m = fillValidForm(t, m)

	m, cmd := update(t, m, keyEnter)
	m, _ = update(t, m, findAttempt(t, cmd))

	assert.Equal(t, submission.StateFailed, m.ctrl.State())
	assert.Equal(t, "Al", m.name.Value())
	assert.Equal(t, "al@example.com", m.ctrl.Values().Email)
	view := m.View()
	assert.Contains(t, view, submission.MsgJoinFailed)
	assert.Contains(t, view, "Join Waitlist")
}

func TestModel_ResetAfterSuccess(t *testing.T) {
	m := NewModel(&stubSender{}, Options{})
	m = fillValidForm(t, m)
	m, cmd := update(t, m, keyEnter)
	m, _ = update(t, m, findAttempt(t, cmd))
	require.Equal(t, submission.StateSucceeded, m.ctrl.State())

	m = press(t, m, runes("r"))

	assert.Equal(t, submission.StateIdle, m.ctrl.State())
	assert.Equal(t, focusName, m.focus)
	assert.Nil(t, m.toast)
	assert.NotContains(t, m.View(), "Thank you!")
}

func TestModel_ToastExpires(t *testing.T) {
	m := NewModel(&stubSender{}, Options{})
	m, _ = update(t, m, keyEnter)
	require.NotNil(t, m.toast)

	stale := toastExpiredMsg{id: m.toast.id - 1}
	m, _ = update(t, m, stale)
	require.NotNil(t, m.toast)

	m, _ = update(t, m, toastExpiredMsg{id: m.toast.id})
	assert.Nil(t, m.toast)
}

func TestModel_FocusCycles(t *testing.T) {
	m := NewModel(&stubSender{}, Options{})

	m = press(t, m, keyTab, keyTab, keyTab, keyTab)
	assert.Equal(t, focusName, m.focus)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, focusSubmit, m.focus)
}

func TestModel_CountShown(t *testing.T) {
	m := NewModel(&stubSender{}, Options{})

	m, _ = update(t, m, countMsg{count: 42})
	assert.Contains(t, m.View(), "Join 42+ people")

	m = NewModel(&stubSender{}, Options{})
	m, _ = update(t, m, countMsg{err: errors.New("down")})
	assert.NotContains(t, m.View(), "people who already signed up")
}

func TestModel_EscQuits(t *testing.T) {
	m := NewModel(&stubSender{}, Options{})

	m, cmd := update(t, m, keyEsc)

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_Teatest_JoinFlow(t *testing.T) {
	sender := &stubSender{}
	m := NewModel(sender, Options{Count: func() (int, error) { return 7, nil }})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Join 7+ people"))
	}, teatest.WithDuration(2*time.Second))

	tm.Type("Al")
	tm.Send(keyTab)
	tm.Type("al@example.com")
	tm.Send(keyTab)
	tm.Send(keySpace)
	tm.Send(keyTab)
	tm.Send(keyEnter)

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Thank you!"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(runes("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final, ok := tm.FinalModel(t).(Model)
	require.True(t, ok)
	assert.Equal(t, submission.StateSucceeded, final.ctrl.State())
	assert.Equal(t, int32(1), sender.calls.Load())
}

func TestSubmitPlain(t *testing.T) {
	tests := []struct {
		name    string
		values  waitlist.Candidate
		err     error
		wantErr bool
		want    []string
	}{
		{
			name:   "joined",
			values: waitlist.Candidate{Name: "Al", Email: "al@example.com", AgreeToTerms: true},
			want:   []string{"✓ " + submission.MsgJoined},
		},
		{
			name:    "rejected",
			values:  waitlist.Candidate{Name: "A", Email: "nope"},
			wantErr: true,
			want: []string{
				"name: " + waitlist.MsgNameTooShort,
				"email: " + waitlist.MsgEmailInvalid,
				"agreeToTerms: " + waitlist.MsgTermsRequired,
			},
		},
		{
			name:    "send failed",
			values:  waitlist.Candidate{Name: "Al", Email: "al@example.com", AgreeToTerms: true},
			err:     submission.ErrEndpointNotConfigured,
			wantErr: true,
			want:    []string{"✗ " + submission.MsgJoinFailed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			err := SubmitPlain(&out, &stubSender{err: tt.err}, tt.values)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotJoined)
			} else {
				assert.NoError(t, err)
			}
			for _, line := range tt.want {
				assert.True(t, strings.Contains(out.String(), line), "output %q missing %q", out.String(), line)
			}
		})
	}
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}
