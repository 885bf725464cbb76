package tui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/launchlist/waitlist-service/internal/submission"
	"github.com/launchlist/waitlist-service/internal/waitlist"
)

// ErrNotJoined is returned by SubmitPlain when the entry was not accepted.
var ErrNotJoined = errors.New("not joined")

// IsTTY reports whether w is connected to a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SubmitPlain runs one submission without the interactive form and writes
// field errors and notices to w as plain lines.
func SubmitPlain(w io.Writer, sender submission.Sender, values waitlist.Candidate, opts ...submission.Option) error {
	var notices []submission.Notice
	opts = append(opts, submission.WithNotifier(submission.NotifierFunc(func(n submission.Notice) {
		notices = append(notices, n)
	})))
	ctrl := submission.NewController(sender, opts...)
	ctrl.SetValues(values)

	err := ctrl.Submit()

	var fieldErrs waitlist.FieldErrors
	if errors.As(err, &fieldErrs) {
		for _, f := range fieldErrs.Fields() {
			fmt.Fprintf(w, "%s: %s\n", f, fieldErrs.Get(f))
		}
		fmt.Fprintln(w, submission.MsgFixFieldError)
		return ErrNotJoined
	}

	for _, n := range notices {
		mark := "✓"
		if n.Kind == submission.NoticeError {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, n.Message)
	}
	if err != nil {
		return ErrNotJoined
	}
	return nil
}
