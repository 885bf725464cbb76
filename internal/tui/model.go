package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/launchlist/waitlist-service/internal/submission"
	"github.com/launchlist/waitlist-service/internal/waitlist"
)

// ToastDuration is how long a notice stays on screen.
const ToastDuration = 4 * time.Second

// focusable form controls, in tab order.
type focus int

const (
	focusName focus = iota
	focusEmail
	focusTerms
	focusSubmit
	focusCount
)

// attemptDoneMsg carries a finished attempt back into the event loop.
type attemptDoneMsg struct {
	attempt *submission.Attempt
	outcome submission.Outcome
}

// toastExpiredMsg hides the toast with the matching id.
type toastExpiredMsg struct {
	id int
}

// countMsg carries the result of the waitlist count fetch.
type countMsg struct {
	count int
	err   error
}

type toast struct {
	id      int
	kind    submission.NoticeKind
	message string
}

// inbox collects notices raised by the controller during Update.
type inbox struct {
	notices []submission.Notice
}

func (b *inbox) Notify(n submission.Notice) { b.notices = append(b.notices, n) }

func (b *inbox) drain() []submission.Notice {
	out := b.notices
	b.notices = nil
	return out
}

// CountFunc fetches how many people already joined.
type CountFunc func() (int, error)

// Options configures a Model.
type Options struct {
	Count CountFunc
}

// Model is the Bubble Tea model for the waitlist form.
type Model struct {
	ctrl    *submission.Controller
	inbox   *inbox
	name    textinput.Model
	email   textinput.Model
	focus   focus
	spinner spinner.Model
	toast   *toast
	toastID int

	countFn    CountFunc
	count      int
	countKnown bool

	quitting bool
}

// NewModel builds a form that submits through sender.
func NewModel(sender submission.Sender, opts Options, ctrlOpts ...submission.Option) Model {
	box := &inbox{}
	ctrlOpts = append(ctrlOpts, submission.WithNotifier(box))

	name := textinput.New()
	name.Placeholder = "Your full name..."
	name.Prompt = ""
	name.CharLimit = 100
	name.Focus()

	email := textinput.New()
	email.Placeholder = "Enter your email..."
	email.Prompt = ""
	email.CharLimit = 320

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ctrl:    submission.NewController(sender, ctrlOpts...),
		inbox:   box,
		name:    name,
		email:   email,
		spinner: s,
		countFn: opts.Count,
	}
}

// Controller exposes the underlying submission controller.
func (m Model) Controller() *submission.Controller { return m.ctrl }

// Init starts the cursor blink and the count fetch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.countFn != nil {
		fn := m.countFn
		cmds = append(cmds, func() tea.Msg {
			n, err := fn()
			return countMsg{count: n, err: err}
		})
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case attemptDoneMsg:
		_ = m.ctrl.Resolve(msg.attempt, msg.outcome)
		if m.ctrl.State() == submission.StateSucceeded {
			m.name.SetValue("")
			m.email.SetValue("")
		}
		return m, m.showNotices()

	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == msg.id {
			m.toast = nil
		}
		return m, nil

	case countMsg:
		if msg.err == nil {
			m.count = msg.count
			m.countKnown = true
		}
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.State() != submission.StatePending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if m.ctrl.State() == submission.StateSucceeded {
		switch msg.String() {
		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.ctrl.Reset()
			m.toast = nil
			return m, m.setFocus(focusName)
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab", "down":
		return m, m.setFocus((m.focus + 1) % focusCount)
	case "shift+tab", "up":
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	case "enter":
		if m.focus == focusTerms {
			m.toggleTerms()
			return m, nil
		}
		return m.submit()
	case " ":
		if m.focus == focusTerms {
			m.toggleTerms()
			return m, nil
		}
		if m.focus == focusSubmit {
			return m.submit()
		}
	}

	return m.updateInputs(msg)
}

func (m *Model) toggleTerms() {
	m.ctrl.SetAgreeToTerms(!m.ctrl.Values().AgreeToTerms)
}

// submit starts an attempt unless one is already in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	attempt, err := m.ctrl.Begin()
	if err != nil {
		var fieldErrs waitlist.FieldErrors
		if errors.As(err, &fieldErrs) {
			return m, m.setToast(submission.NoticeError, submission.MsgFixFieldError)
		}
		// In flight or already completed: the submit control is disabled.
		return m, nil
	}

	m.name.Blur()
	m.email.Blur()
	return m, tea.Batch(m.spinner.Tick, runAttempt(attempt))
}

func runAttempt(a *submission.Attempt) tea.Cmd {
	return func() tea.Msg {
		return attemptDoneMsg{attempt: a, outcome: a.Do()}
	}
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.ctrl.State() == submission.StatePending || m.ctrl.State() == submission.StateSucceeded {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusName:
		m.name, cmd = m.name.Update(msg)
		m.ctrl.SetName(m.name.Value())
	case focusEmail:
		m.email, cmd = m.email.Update(msg)
		m.ctrl.SetEmail(m.email.Value())
	}
	return m, cmd
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.name.Blur()
	m.email.Blur()
	switch f {
	case focusName:
		return m.name.Focus()
	case focusEmail:
		return m.email.Focus()
	}
	return nil
}

func (m *Model) showNotices() tea.Cmd {
	var cmd tea.Cmd
	for _, n := range m.inbox.drain() {
		cmd = m.setToast(n.Kind, n.Message)
	}
	if m.ctrl.State() == submission.StateFailed {
		cmd = tea.Batch(cmd, m.setFocus(m.focus))
	}
	return cmd
}

func (m *Model) setToast(kind submission.NoticeKind, message string) tea.Cmd {
	m.toastID++
	id := m.toastID
	m.toast = &toast{id: id, kind: kind, message: message}
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// View renders the form, or the confirmation panel once joined.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Something Big Is Coming"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Be the first to know when we launch. Join the waiting list for early access."))
	b.WriteString("\n\n")

	if m.ctrl.State() == submission.StateSucceeded {
		b.WriteString(successPanelStyle.Render(
			successTitleStyle.Render("✓ Thank you!") + "\n" +
				"You have successfully joined our waiting list.\nWe will contact you soon!"))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("r: join with another email • q: quit"))
	} else {
		b.WriteString(m.formView())
	}

	if m.countKnown {
		b.WriteString("\n\n")
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Join %d+ people who already signed up", m.count)))
	}

	if m.toast != nil {
		b.WriteString("\n\n")
		b.WriteString(toastView(m.toast))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) formView() string {
	errs := m.ctrl.FieldErrors()
	values := m.ctrl.Values()
	pending := m.ctrl.State() == submission.StatePending

	var b strings.Builder
	b.WriteString(m.fieldView("Name", m.name.View(), focusName, errs.Get(waitlist.FieldName)))
	b.WriteString(m.fieldView("Email", m.email.View(), focusEmail, errs.Get(waitlist.FieldEmail)))

	box := "[ ]"
	if values.AgreeToTerms {
		box = "[x]"
	}
	terms := box + " I agree to the " + linkStyle.Render("Terms & Conditions")
	b.WriteString(focusMarker(m.focus == focusTerms) + terms + "\n")
	if msg := errs.Get(waitlist.FieldAgreeToTerms); msg != "" {
		b.WriteString("  " + errorStyle.Render(msg) + "\n")
	}
	b.WriteString("\n")

	var button string
	switch {
	case pending:
		button = disabledButtonStyle.Render(m.spinner.View() + " Joining...")
	case m.focus == focusSubmit:
		button = focusedButtonStyle.Render("Join Waitlist")
	default:
		button = buttonStyle.Render("Join Waitlist")
	}
	b.WriteString(focusMarker(m.focus == focusSubmit) + button + "\n\n")
	b.WriteString(helpStyle.Render("tab: next • space: toggle • enter: submit • esc: quit"))
	return b.String()
}

func (m Model) fieldView(label, input string, f focus, errMsg string) string {
	var b strings.Builder
	b.WriteString(focusMarker(m.focus == f) + labelStyle.Render(label) + "\n")
	style := inputStyle
	if errMsg != "" {
		style = inputErrorStyle
	}
	b.WriteString("  " + style.Render(input) + "\n")
	if errMsg != "" {
		b.WriteString("  " + errorStyle.Render(errMsg) + "\n")
	}
	return b.String()
}

func focusMarker(focused bool) string {
	if focused {
		return "› "
	}
	return "  "
}

func toastView(t *toast) string {
	if t.kind == submission.NoticeSuccess {
		return toastSuccessStyle.Render("✓ " + t.message)
	}
	return toastErrorStyle.Render("✗ " + t.message)
}
