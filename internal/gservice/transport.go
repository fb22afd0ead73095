package gservice

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

var errNoCredential = errors.New("no credential attached to request context")

type credentialKey struct{}

func withCredential(ctx context.Context, tok *oauth2.Token) context.Context {
	return context.WithValue(ctx, credentialKey{}, tok)
}

func credentialFrom(ctx context.Context) (*oauth2.Token, bool) {
	tok, ok := ctx.Value(credentialKey{}).(*oauth2.Token)
	return tok, ok && tok != nil
}

// authTransport sets the Authorization header from the credential the
// executor attached to the request context. Requests without one are
// refused, so nothing reaches Gmail without passing the executor.
type authTransport struct {
	base http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, ok := credentialFrom(req.Context())
	if !ok {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, errNoCredential
	}

	r := req.Clone(req.Context())
	tok.SetAuthHeader(r)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(r)
}
