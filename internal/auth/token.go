// Package auth handles OAuth2 token management and persistence.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reader/internal/logging"
)

var (
	// ErrTokenNotSet indicates no OAuth token is available.
	ErrTokenNotSet = errors.New("no token defined")

	// ErrRefreshFailed wraps failures of the token endpoint during refresh.
	ErrRefreshFailed = errors.New("token refresh failed")
)

const stateTTL = 5 * time.Minute

// NewConfig builds the OAuth2 client configuration. The only scope ever
// requested is read-only mailbox access.
func NewConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// Token manages OAuth2 tokens with thread-safe operations. Refreshes are
// serialized: concurrent callers wait for the running refresh and then share
// its result.
type Token struct {
	mu          sync.Mutex
	cfg         *oauth2.Config
	token       *oauth2.Token
	persistPath string
	stateStore  map[string]time.Time
	logger      *slog.Logger
}

// Option configures a Token.
type Option func(*Token)

func WithLogger(l *slog.Logger) Option {
	return func(t *Token) { t.logger = logging.OrDefault(l) }
}

// NewToken creates a Token manager, loading from disk if path provided.
func NewToken(cfg *oauth2.Config, persistPath string, opts ...Option) (*Token, error) {
	t := &Token{
		cfg:         cfg,
		persistPath: persistPath,
		stateStore:  make(map[string]time.Time),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if persistPath == "" {
		return t, nil
	}

	f, err := os.Open(persistPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.logger.Debug("token file not found, it is created after authorization", slog.String("path", persistPath))
			return t, nil
		}
		return nil, fmt.Errorf("os.Open failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("json.NewDecoder.Decode failed: %w", err)
	}
	t.token = token

	return t, nil
}

// SeedRefreshToken installs a refresh token supplied out of band, for example
// through the environment. A token loaded from disk takes precedence.
func (t *Token) SeedRefreshToken(refreshToken string) {
	if refreshToken == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token == nil {
		t.token = &oauth2.Token{RefreshToken: refreshToken}
	}
}

// Token returns a valid access token, refreshing it when expired. A refreshed
// token is persisted when a path is configured.
func (t *Token) Token(ctx context.Context) (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token == nil {
		return nil, ErrTokenNotSet
	}
	if t.token.Valid() {
		return t.token, nil
	}
	if t.token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: access token expired and no refresh token stored", ErrRefreshFailed)
	}

	fresh, err := t.cfg.TokenSource(ctx, t.token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	t.token = fresh
	t.logger.Debug("access token refreshed", slog.Time("expiry", fresh.Expiry))

	if err := t.persistLocked(); err != nil {
		t.logger.Warn("refreshed token not persisted", logging.Err(err))
	}

	return t.token, nil
}

// RedirectURL generates the OAuth2 authorization URL with a secure random state.
func (t *Token) RedirectURL() (string, error) {
	state, err := t.generateState()
	if err != nil {
		return "", fmt.Errorf("generateState failed: %w", err)
	}

	return t.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (t *Token) generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.stateStore[state] = now.Add(stateTTL)

	for s, exp := range t.stateStore {
		if exp.Before(now) {
			delete(t.stateStore, s)
		}
	}

	return state, nil
}

func (t *Token) validateState(state string) bool {
	if state == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, exists := t.stateStore[state]
	if !exists {
		return false
	}

	delete(t.stateStore, state)

	return !time.Now().After(expiry)
}

// AuthorizeCode exchanges an authorization code for an access token after validating state.
func (t *Token) AuthorizeCode(ctx context.Context, code string, state string) error {
	if !t.validateState(state) {
		return errors.New("invalid or expired state parameter")
	}

	tok, err := t.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("cfg.Exchange failed: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.token = tok

	return nil
}

// OAuthToken returns the stored OAuth2 token without refreshing it.
func (t *Token) OAuthToken() (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token == nil {
		return nil, ErrTokenNotSet
	}

	return t.token, nil
}

// Persist saves the token to disk.
func (t *Token) Persist() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.persistLocked()
}

// persistLocked writes the token through a temporary file so readers never
// observe a partial file. Callers hold t.mu.
func (t *Token) persistLocked() error {
	if t.persistPath == "" || t.token == nil {
		return nil
	}

	dir := filepath.Dir(t.persistPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("os.MkdirAll failed: %w", err)
	}

	f, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("os.CreateTemp failed: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if err := json.NewEncoder(f).Encode(t.token); err != nil {
		_ = f.Close()
		return fmt.Errorf("json.NewEncoder.Encode failed: %w", err)
	}
	if err := f.Chmod(0o600); err != nil {
		_ = f.Close()
		return fmt.Errorf("f.Chmod failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("f.Close failed: %w", err)
	}

	if err := os.Rename(f.Name(), t.persistPath); err != nil {
		return fmt.Errorf("os.Rename failed: %w", err)
	}

	return nil
}
