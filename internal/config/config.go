// Package config loads runtime settings from defaults, an env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/hal9000y/gmail-reader/internal/gservice"
	"github.com/hal9000y/gmail-reader/internal/retry"
	"github.com/hal9000y/gmail-reader/internal/validate"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// ErrMissingCredentials is returned by RequireClient when the OAuth client is
// not configured.
var ErrMissingCredentials = errors.New("GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET must be set")

const (
	EnvRateLimitRPS     = "GMAIL_RATE_LIMIT_RPS"
	EnvRateLimitBurst   = "GMAIL_RATE_LIMIT_BURST"
	EnvMaxAttempts      = "GMAIL_MAX_ATTEMPTS"
	EnvRetryBaseWait    = "GMAIL_RETRY_BASE_WAIT"
	EnvRetryMultiplier  = "GMAIL_RETRY_MULTIPLIER"
	EnvRetryMaxWait     = "GMAIL_RETRY_MAX_WAIT"
	EnvRetryJitter      = "GMAIL_RETRY_JITTER"
	EnvRequestTimeout   = "GMAIL_REQUEST_TIMEOUT"
	EnvMaxPages         = "GMAIL_MAX_PAGES"
	EnvMaxInMemory      = "GMAIL_MAX_MESSAGES_IN_MEMORY"
	EnvMaxQueryLength   = "GMAIL_MAX_QUERY_LENGTH"
	EnvBatchConcurrency = "GMAIL_BATCH_CONCURRENCY"
	EnvMCPExportLimit   = "GMAIL_MCP_EXPORT_LIMIT"
	EnvClientID         = "GMAIL_CLIENT_ID"
	EnvClientSecret     = "GMAIL_CLIENT_SECRET"
	EnvRefreshToken     = "GMAIL_REFRESH_TOKEN"
	EnvTokenFile        = "GMAIL_TOKEN_FILE"
)

// Config holds every tunable of the reader.
type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int

	MaxAttempts     int
	RetryBaseDelay  time.Duration
	RetryMultiplier float64
	RetryMaxDelay   time.Duration
	RetryJitter     float64
	AttemptTimeout  time.Duration

	MaxPages            int
	MaxMessagesInMemory int
	MaxQueryLength      int
	BatchConcurrency    int
	MCPExportLimit      int

	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenFile    string
}

// Default returns the built-in settings.
func Default() Config {
	p := retry.DefaultPolicy()
	return Config{
		RateLimitRPS:        10,
		RateLimitBurst:      10,
		MaxAttempts:         p.MaxAttempts,
		RetryBaseDelay:      p.BaseDelay,
		RetryMultiplier:     p.Multiplier,
		RetryMaxDelay:       p.MaxDelay,
		RetryJitter:         p.JitterFraction,
		AttemptTimeout:      gservice.DefaultAttemptTimeout,
		MaxPages:            gservice.DefaultMaxPages,
		MaxMessagesInMemory: 10000,
		MaxQueryLength:      validate.DefaultMaxQueryLength,
		BatchConcurrency:    gservice.DefaultBatchConcurrency,
		MCPExportLimit:      100,
		TokenFile:           defaultTokenFile(),
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "gmail-reader-token.json")
	}
	return filepath.Join(dir, "gmail-reader", "token.json")
}

// DefaultEnvFile is ~/.env, or empty when the home directory is unknown.
func DefaultEnvFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".env")
}

// Load applies defaults, then envFile, then the process environment. Values
// already present in the environment win over the file. An empty envFile
// means DefaultEnvFile, which may be missing; an explicit file must exist.
func Load(envFile string) (Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile()
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("godotenv.Load failed: %w", err)
			}
		}
	}

	return FromEnv(Default(), os.LookupEnv)
}

// FromEnv overrides base with the variables lookup finds.
func FromEnv(base Config, lookup func(string) (string, bool)) (Config, error) {
	p := envParser{lookup: lookup}
	c := base

	p.float(EnvRateLimitRPS, &c.RateLimitRPS)
	p.int(EnvRateLimitBurst, &c.RateLimitBurst)
	p.int(EnvMaxAttempts, &c.MaxAttempts)
	p.duration(EnvRetryBaseWait, &c.RetryBaseDelay)
	p.float(EnvRetryMultiplier, &c.RetryMultiplier)
	p.duration(EnvRetryMaxWait, &c.RetryMaxDelay)
	p.float(EnvRetryJitter, &c.RetryJitter)
	p.duration(EnvRequestTimeout, &c.AttemptTimeout)
	p.int(EnvMaxPages, &c.MaxPages)
	p.int(EnvMaxInMemory, &c.MaxMessagesInMemory)
	p.int(EnvMaxQueryLength, &c.MaxQueryLength)
	p.int(EnvBatchConcurrency, &c.BatchConcurrency)
	p.int(EnvMCPExportLimit, &c.MCPExportLimit)
	p.string(EnvClientID, &c.ClientID)
	p.string(EnvClientSecret, &c.ClientSecret)
	p.string(EnvRefreshToken, &c.RefreshToken)
	p.string(EnvTokenFile, &c.TokenFile)

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate rejects settings the limiter, retry policy or paginator cannot
// run with.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.RateLimitRPS > 0, "rate limit must be positive, got %v", c.RateLimitRPS)
	check(c.RateLimitBurst > 0, "burst must be positive, got %d", c.RateLimitBurst)
	check(c.MaxPages > 0, "max pages must be positive, got %d", c.MaxPages)
	check(c.MaxMessagesInMemory > 0, "max messages in memory must be positive, got %d", c.MaxMessagesInMemory)
	check(c.MaxQueryLength > 0, "max query length must be positive, got %d", c.MaxQueryLength)
	check(c.BatchConcurrency > 0, "batch concurrency must be positive, got %d", c.BatchConcurrency)
	check(c.MCPExportLimit > 0, "MCP export limit must be positive, got %d", c.MCPExportLimit)
	check(c.AttemptTimeout >= 0, "request timeout must not be negative, got %s", c.AttemptTimeout)

	if err := c.RetryPolicy().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}

	return errors.Join(errs...)
}

// RetryPolicy builds the retry policy described by c.
func (c Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = c.MaxAttempts
	p.BaseDelay = c.RetryBaseDelay
	p.Multiplier = c.RetryMultiplier
	p.MaxDelay = c.RetryMaxDelay
	p.JitterFraction = c.RetryJitter
	return p
}

// RequireClient reports whether the OAuth client is configured.
func (c Config) RequireClient() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

type envParser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *envParser) raw(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (p *envParser) string(key string, dst *string) {
	if v, ok := p.raw(key); ok {
		*dst = v
	}
}

func (p *envParser) int(key string, dst *int) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return
	}
	*dst = n
}

func (p *envParser) float(key string, dst *float64) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a number", key, v))
		return
	}
	*dst = f
}

// duration accepts Go durations ("1.5s") or plain seconds ("30").
func (p *envParser) duration(key string, dst *time.Duration) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return
	}
	*dst = d
}
