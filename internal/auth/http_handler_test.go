package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"

	"github.com/hal9000y/gmail-reader/internal/logging"
)

type tokMock struct {
	authorizeErr error
	token        *oauth2.Token
}

func (m *tokMock) AuthorizeCode(context.Context, string, string) error { return m.authorizeErr }

func (m *tokMock) OAuthToken() (*oauth2.Token, error) {
	if m.token == nil {
		return nil, ErrTokenNotSet
	}
	return m.token, nil
}

func (m *tokMock) RedirectURL() (string, error) {
	return "https://accounts.example.test/auth?state=abc", nil
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHTTPHandlerRedirect(t *testing.T) {
	h := NewHTTPHandler(&tokMock{}, logging.Discard())

	rec := serve(h, "/oauth?redirect=1")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://accounts.example.test/auth?state=abc", rec.Header().Get("Location"))
}

func TestHTTPHandlerCodeExchange(t *testing.T) {
	h := NewHTTPHandler(&tokMock{}, logging.Discard())

	rec := serve(h, "/oauth?code=c&state=s")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/oauth", rec.Header().Get("Location"))

	select {
	case <-h.Authorized():
	case <-time.After(time.Second):
		t.Fatal("authorized channel not closed")
	}

	// A second exchange must not panic on the closed channel.
	serve(h, "/oauth?code=c&state=s")
}

func TestHTTPHandlerCodeExchangeFailure(t *testing.T) {
	h := NewHTTPHandler(&tokMock{authorizeErr: errors.New("bad state")}, logging.Discard())

	rec := serve(h, "/oauth?code=c&state=s")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	select {
	case <-h.Authorized():
		t.Fatal("authorized after failed exchange")
	default:
	}
}

func TestHTTPHandlerStatus(t *testing.T) {
	rec := serve(NewHTTPHandler(&tokMock{}, logging.Discard()), "/oauth")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok := &tokMock{token: &oauth2.Token{AccessToken: "secret-access-token", Expiry: time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)}}
	rec = serve(NewHTTPHandler(tok, logging.Discard()), "/oauth")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-access-token")
	assert.Contains(t, rec.Body.String(), "2030-01-02T03:04:05Z")
}

func TestHTTPHandlerDenied(t *testing.T) {
	h := NewHTTPHandler(&tokMock{}, logging.Discard())

	rec := serve(h, "/oauth?error=access_denied")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_denied")
}
