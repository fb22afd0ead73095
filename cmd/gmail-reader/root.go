package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-reader/internal/auth"
	"github.com/hal9000y/gmail-reader/internal/config"
	"github.com/hal9000y/gmail-reader/internal/gservice"
	"github.com/hal9000y/gmail-reader/internal/logging"
)

type rootOptions struct {
	envFile   string
	output    string
	verbose   bool
	logFile   string
	logFormat string

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "gmail-reader",
		Short: "Read-only Gmail access for the command line and MCP clients",
		Long: `gmail-reader lists, searches, reads and exports Gmail messages without ever
modifying the mailbox. It only requests the gmail.readonly OAuth scope.

Every request goes through a shared rate limiter and is retried with
exponential backoff on throttling and transient failures.`,
		Example: `  gmail-reader auth
  gmail-reader list --max 20
  gmail-reader search --query "from:boss@company.com is:unread"
  gmail-reader read --message-id 18c1f2a3b4d5e6f7 --format full
  gmail-reader export --start-date 2026-01-01 --end-date 2026-02-17 --file emails.json
  gmail-reader serve --transport http --http-addr localhost:8080`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			switch opts.output {
			case outputTable, outputJSON:
				return nil
			default:
				return fmt.Errorf("--output must be %q or %q, got %q", outputTable, outputJSON, opts.output)
			}
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate(`{{printf "gmail-reader version %s\n" .Version}}`)

	f := cmd.PersistentFlags()
	f.StringVar(&opts.envFile, "env-file", "", "Path to env file (default ~/.env, ignored when missing)")
	f.StringVarP(&opts.output, "output", "o", outputTable, "Output format: table or json")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	f.StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")
	f.StringVar(&opts.logFormat, "log-format", logging.FormatText, "Log format: text or json")

	cmd.AddCommand(
		newAuthCmd(opts),
		newTestCmd(opts),
		newListCmd(opts),
		newSearchCmd(opts),
		newReadCmd(opts),
		newThreadsCmd(opts),
		newLabelsCmd(opts),
		newExportCmd(opts),
		newServeCmd(opts),
	)

	return cmd
}

// loadConfig reads configuration and checks it.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("config.Load failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger. quiet discards logs unless a log file
// is configured, for transports that own stdout.
func (o *rootOptions) newLogger(quiet bool) (*slog.Logger, func(), error) {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}

	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return logging.New(f, level, o.logFormat), func() { _ = f.Close() }, nil
	}

	if quiet {
		return logging.Discard(), func() {}, nil
	}

	return logging.New(o.stderr, level, o.logFormat), func() {}, nil
}

// describeError turns classified failures into actionable messages.
func describeError(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenNotSet), errors.Is(err, config.ErrMissingCredentials):
		return fmt.Sprintf("%v\n\nRun 'gmail-reader auth' first to authenticate.", err)
	case gservice.IsAuthentication(err):
		return fmt.Sprintf("%v\n\nThe stored credential was rejected. Run 'gmail-reader auth' to re-authenticate.", err)
	case gservice.IsValidation(err):
		return err.Error()
	case gservice.KindOf(err) == gservice.KindRateLimitExhausted:
		return fmt.Sprintf("%v\n\nGmail quota is exhausted. Wait a few minutes and try again.", err)
	case errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return err.Error()
	}
}
