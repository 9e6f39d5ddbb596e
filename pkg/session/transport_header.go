package session

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// HeaderTransport implements Transport using HTTP headers for non-browser
// clients. Tokens are signed with the cookie manager, bound to the header name.
type HeaderTransport struct {
	signer     *cookie.Manager
	headerName string
	prefix     string
}

// NewHeaderTransport creates a new header-based transport
func NewHeaderTransport(signer *cookie.Manager, headerName string, opts ...HeaderOption) *HeaderTransport {
	t := &HeaderTransport{
		signer:     signer,
		headerName: headerName,
		prefix:     "Bearer ",
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// HeaderOption is a functional option for HeaderTransport
type HeaderOption func(*HeaderTransport)

// WithHeaderPrefix sets a custom prefix for the header value
func WithHeaderPrefix(prefix string) HeaderOption {
	return func(t *HeaderTransport) {
		t.prefix = prefix
	}
}

// GetToken extracts and verifies the session id from the header
func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	value := r.Header.Get(t.headerName)
	if value == "" {
		return "", ErrTokenNotFound
	}
	value = strings.TrimPrefix(value, t.prefix)

	token, err := t.signer.Verify(t.headerName, value)
	if err != nil || !ValidID(token) {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// SetToken sends the signed session id in the response header
func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string) error {
	w.Header().Set(t.headerName, t.prefix+t.signer.Sign(t.headerName, token))
	return nil
}

// ClearToken removes the session header from the response
func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.headerName)
	return nil
}
