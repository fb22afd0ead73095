package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/hal9000y/gmail-reader/internal/logging"
)

type tok interface {
	AuthorizeCode(context.Context, string, string) error
	OAuthToken() (*oauth2.Token, error)
	RedirectURL() (string, error)
}

// HTTPHandler handles OAuth2 authentication flow via HTTP.
type HTTPHandler struct {
	tok        tok
	logger     *slog.Logger
	once       sync.Once
	authorized chan struct{}
}

// NewHTTPHandler creates an HTTP handler for OAuth2 flow.
func NewHTTPHandler(tok tok, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{
		tok:        tok,
		logger:     logging.OrDefault(logger),
		authorized: make(chan struct{}),
	}
}

// Authorized is closed after the first successful code exchange.
func (h *HTTPHandler) Authorized() <-chan struct{} {
	return h.authorized
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("redirect") != "" {
		u, err := h.tok.RedirectURL()
		if err != nil {
			h.logger.Error("h.tok.RedirectURL failed", logging.Err(err))
			http.Error(w, "Unable to start authorization", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, u, http.StatusFound)
		return
	}

	if reason := r.URL.Query().Get("error"); reason != "" {
		h.logger.Warn("authorization denied", slog.String("reason", reason))
		http.Error(w, "Authorization was not granted: "+reason, http.StatusForbidden)
		return
	}

	if code := r.URL.Query().Get("code"); code != "" {
		state := r.URL.Query().Get("state")
		if err := h.tok.AuthorizeCode(r.Context(), code, state); err != nil {
			h.logger.Warn("h.tok.AuthorizeCode failed", logging.Err(err))
			http.Error(w, "Unable to authorize provided code", http.StatusBadRequest)
			return
		}
		h.once.Do(func() { close(h.authorized) })
		http.Redirect(w, r, r.URL.EscapedPath(), http.StatusFound)
		return
	}

	t, err := h.tok.OAuthToken()
	if errors.Is(err, ErrTokenNotSet) {
		http.Error(w, "Token not found", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Token: %s, expires: %s. You can close this window.", logging.SanitizeToken(t.AccessToken), t.Expiry.Format(time.RFC3339))
}
