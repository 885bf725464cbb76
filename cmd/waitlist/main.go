package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/launchlist/waitlist-service/internal/config"
	"github.com/launchlist/waitlist-service/internal/observability"
	"github.com/launchlist/waitlist-service/internal/submission"
	"github.com/launchlist/waitlist-service/internal/tui"
	"github.com/launchlist/waitlist-service/internal/waitlist"
)

var (
	version = "dev"
	commit  = "unknown"
)

// CLI is the top-level command structure for the waitlist client.
type CLI struct {
	Version  kong.VersionFlag `help:"Show version." short:"V"`
	Endpoint string           `help:"Collection endpoint URL. Overrides WAITLIST_API_URL."`

	Form   FormCmd   `cmd:"" default:"1" help:"Open the interactive waitlist form."`
	Submit SubmitCmd `cmd:"" help:"Join the waitlist without the interactive form."`
}

// FormCmd runs the terminal form.
type FormCmd struct{}

// SubmitCmd submits one entry from flags.
type SubmitCmd struct {
	Name  string `help:"Full name." required:""`
	Email string `help:"Email address." required:""`
	Agree bool   `help:"Agree to the Terms & Conditions."`
}

// runtime carries what every command needs.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	sender submission.Sender
	out    io.Writer
}

func newRuntime(cli *CLI, out io.Writer) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cli.Endpoint != "" {
		cfg.Waitlist.APIURL = cli.Endpoint
	}

	logger, err := observability.NewLogger(config.LoggerConfig{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Name:   "form",
		File:   cfg.Waitlist.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	sender := submission.NewClient(submission.Endpoint{
		URL:     cfg.Waitlist.APIURL,
		Timeout: cfg.Waitlist.RequestTimeout(),
	}, logger)

	return &runtime{cfg: cfg, logger: logger, sender: sender, out: out}, nil
}

// Run executes the form command.
func (f *FormCmd) Run(rt *runtime) error {
	if !tui.IsTTY(rt.out) {
		return errors.New("form: requires a terminal (TTY); use the submit command instead")
	}

	var opts tui.Options
	if url := rt.cfg.Waitlist.CountURL; url != "" {
		timeout := rt.cfg.Waitlist.RequestTimeout()
		opts.Count = func() (int, error) {
			return submission.FetchCount(url, timeout)
		}
	}

	m := tui.NewModel(rt.sender, opts, submission.WithLogger(rt.logger))
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	return nil
}

// Run executes the submit command.
func (s *SubmitCmd) Run(rt *runtime) error {
	return tui.SubmitPlain(rt.out, rt.sender, waitlist.Candidate{
		Name:         s.Name,
		Email:        s.Email,
		AgreeToTerms: s.Agree,
	}, submission.WithLogger(rt.logger))
}

const (
	exitSuccess  = 0
	exitRejected = 1
	exitSetup    = 2
)

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, tui.ErrNotJoined):
		return exitRejected
	default:
		return exitSetup
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("waitlist"),
		kong.Description("Join the waiting list from your terminal."),
		kong.Vars{"version": version + " " + commit},
	)

	rt, err := newRuntime(&cli, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitSetup)
	}

	err = ctx.Run(rt)
	_ = rt.logger.Sync()
	if err != nil {
		if !errors.Is(err, tui.ErrNotJoined) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(exitCode(err))
	}
}
