package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hal9000y/gmail-reader/internal/auth"
	"github.com/hal9000y/gmail-reader/internal/config"
	"github.com/hal9000y/gmail-reader/internal/gservice"
	"github.com/hal9000y/gmail-reader/internal/instrumentation"
	"github.com/hal9000y/gmail-reader/internal/ratelimit"
	"github.com/hal9000y/gmail-reader/internal/reader"
)

// app is the wired read-only stack shared by every network command.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	token  *auth.Token
	reader *reader.Reader
}

// newApp builds credential, limiter, executor, Gmail adapter and reader.
// metrics may be nil.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*app, error) {
	if err := cfg.RequireClient(); err != nil {
		return nil, err
	}

	tok, err := auth.NewToken(auth.NewConfig(cfg.ClientID, cfg.ClientSecret, ""), cfg.TokenFile, auth.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("auth.NewToken failed: %w", err)
	}
	tok.SeedRefreshToken(cfg.RefreshToken)

	limiter, err := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	if err != nil {
		return nil, fmt.Errorf("ratelimit.New failed: %w", err)
	}

	ex := gservice.NewExecutor(tok, limiter, cfg.RetryPolicy(),
		gservice.WithAttemptTimeout(cfg.AttemptTimeout),
		gservice.WithLogger(logger),
		gservice.WithMetrics(metrics),
	)

	gm, err := gservice.NewGmail(ctx, ex, gservice.WithBatchConcurrency(cfg.BatchConcurrency))
	if err != nil {
		return nil, fmt.Errorf("gservice.NewGmail failed: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		token:  tok,
		reader: reader.New(gm, reader.Options{
			MaxQueryLength: cfg.MaxQueryLength,
			MaxPages:       cfg.MaxPages,
			MaxInMemory:    cfg.MaxMessagesInMemory,
			Partial:        gservice.SurfacePartial,
			Logger:         logger,
		}),
	}, nil
}

// openApp loads configuration and a logger, then wires the stack. close
// releases the log file.
func (o *rootOptions) openApp(ctx context.Context) (a *app, closeFn func(), err error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, closeLog, err := o.newLogger(false)
	if err != nil {
		return nil, nil, err
	}

	a, err = newApp(ctx, cfg, logger, nil)
	if err != nil {
		closeLog()
		return nil, nil, err
	}

	return a, closeLog, nil
}
