package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-reader/internal/config"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	c := config.Default()

	assert.Equal(t, 10.0, c.RateLimitRPS)
	assert.Equal(t, 10, c.RateLimitBurst)
	assert.Equal(t, 4, c.MaxAttempts)
	assert.Equal(t, time.Second, c.RetryBaseDelay)
	assert.Equal(t, 32*time.Second, c.RetryMaxDelay)
	assert.Equal(t, 30*time.Second, c.AttemptTimeout)
	assert.Equal(t, 50, c.MaxPages)
	assert.Equal(t, 10000, c.MaxMessagesInMemory)
	assert.Equal(t, 1024, c.MaxQueryLength)
	assert.Equal(t, 100, c.MCPExportLimit)
	assert.NoError(t, c.Validate())
}

func TestFromEnv(t *testing.T) {
	c, err := config.FromEnv(config.Default(), mapLookup(map[string]string{
		config.EnvRateLimitRPS:    "2.5",
		config.EnvMaxAttempts:     "6",
		config.EnvRetryBaseWait:   "500ms",
		config.EnvRequestTimeout:  "15",
		config.EnvMaxPages:        "3",
		config.EnvClientID:        "id",
		config.EnvClientSecret:    "secret",
		config.EnvTokenFile:       "/tmp/tok.json",
		config.EnvMCPExportLimit:  "",
		config.EnvRetryMultiplier: "1.5",
	}))
	require.NoError(t, err)

	assert.Equal(t, 2.5, c.RateLimitRPS)
	assert.Equal(t, 6, c.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, c.RetryBaseDelay)
	assert.Equal(t, 15*time.Second, c.AttemptTimeout)
	assert.Equal(t, 3, c.MaxPages)
	assert.Equal(t, 1.5, c.RetryMultiplier)
	assert.Equal(t, 100, c.MCPExportLimit)
	assert.Equal(t, "/tmp/tok.json", c.TokenFile)
	assert.NoError(t, c.RequireClient())
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	_, err := config.FromEnv(config.Default(), mapLookup(map[string]string{
		config.EnvMaxPages:     "many",
		config.EnvRetryMaxWait: "soon",
		config.EnvRateLimitRPS: "fast",
	}))
	require.Error(t, err)
	assert.ErrorContains(t, err, config.EnvMaxPages)
	assert.ErrorContains(t, err, config.EnvRetryMaxWait)
	assert.ErrorContains(t, err, config.EnvRateLimitRPS)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"zero rate":        func(c *config.Config) { c.RateLimitRPS = 0 },
		"zero burst":       func(c *config.Config) { c.RateLimitBurst = 0 },
		"zero attempts":    func(c *config.Config) { c.MaxAttempts = 0 },
		"multiplier below": func(c *config.Config) { c.RetryMultiplier = 0.5 },
		"jitter above one": func(c *config.Config) { c.RetryJitter = 1.5 },
		"base above max":   func(c *config.Config) { c.RetryBaseDelay = time.Minute },
		"zero pages":       func(c *config.Config) { c.MaxPages = 0 },
		"zero concurrency": func(c *config.Config) { c.BatchConcurrency = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := config.Default()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), config.ErrInvalid)
		})
	}
}

func TestRequireClient(t *testing.T) {
	assert.ErrorIs(t, config.Default().RequireClient(), config.ErrMissingCredentials)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GMAIL_CLIENT_ID=file-id\nGMAIL_MAX_PAGES=9\n"), 0o600))

	t.Setenv(config.EnvMaxPages, "4")
	t.Cleanup(func() { _ = os.Unsetenv(config.EnvClientID) })

	c, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-id", c.ClientID)
	assert.Equal(t, 4, c.MaxPages, "process environment wins over the env file")
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := config.Load("")
	assert.NoError(t, err)
}
