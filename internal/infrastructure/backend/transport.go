package backend

import (
	"net/http"

	"github.com/onegat/console/internal/core/ports"
)

// bearerTransport attaches the session token to every outgoing request.
// Nothing else in the module sets the Authorization header.
type bearerTransport struct {
	base   http.RoundTripper
	tokens ports.TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := ports.TokenFromContext(req.Context())
	if !ok && t.tokens != nil {
		token = t.tokens.Token()
	}
	if token == "" {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(r)
}
