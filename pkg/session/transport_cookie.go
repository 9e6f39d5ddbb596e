package session

import (
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// CookieTransport implements Transport using HMAC-signed cookies
type CookieTransport struct {
	cookieMgr  *cookie.Manager
	cookieName string
	options    []cookie.Option
}

// NewCookieTransport creates a new cookie-based transport
func NewCookieTransport(cookieMgr *cookie.Manager, cookieName string, opts ...cookie.Option) *CookieTransport {
	return &CookieTransport{
		cookieMgr:  cookieMgr,
		cookieName: cookieName,
		options:    opts,
	}
}

// cookieOptions maps Config onto cookie options. CookieExpires wins over
// CookieExpiresDays when both are set.
func cookieOptions(cfg Config) []cookie.Option {
	var opts []cookie.Option
	switch {
	case !cfg.CookieExpires.IsZero():
		opts = append(opts, cookie.WithExpires(cfg.CookieExpires))
	case cfg.CookieExpiresDays > 0:
		opts = append(opts, cookie.WithExpiresDays(cfg.CookieExpiresDays))
	}
	if cfg.SecureCookies {
		opts = append(opts, cookie.WithSecure(true))
	}
	return opts
}

// GetToken returns the verified session id from the cookie
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookieMgr.GetSigned(r, t.cookieName)
	if err != nil || !ValidID(token) {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// SetToken stores the session id in a signed cookie
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string) error {
	return t.cookieMgr.SetSigned(w, t.cookieName, token, t.options...)
}

// ClearToken removes the session cookie
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookieMgr.Delete(w, t.cookieName, t.options...)
	return nil
}
