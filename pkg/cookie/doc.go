// Package cookie issues and verifies tamper-evident HTTP cookies.
//
// A Manager holds one or more HMAC secrets. The first secret signs new
// values; every secret is accepted during verification so keys can be rotated
// without logging users out. Signed values embed their issue time and are bound
// to the cookie name:
//
//	base64url(value) | unix-seconds | base64url(HMAC-SHA256(name|value|ts))
//
// Values are signed, not encrypted. Do not store secrets in cookie values.
//
// # Usage
//
//	mgr, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")},
//	    cookie.WithSecure(true),
//	)
//	if err != nil {
//	    return err
//	}
//
//	// issue
//	_ = mgr.SetSigned(w, "sid", sessionID, cookie.WithExpiresDays(30))
//
//	// verify
//	id, err := mgr.GetSigned(r, "sid")
//	switch {
//	case errors.Is(err, cookie.ErrCookieNotFound):
//	case errors.Is(err, cookie.ErrInvalidSignature):
//	}
//
//	// clear
//	mgr.Delete(w, "sid")
//
// # Expiry
//
// WithExpires sets an absolute expiry and WithExpiresDays a relative one,
// computed when the cookie is written. With neither, the cookie lives until the
// browser closes. WithSignedMaxAge bounds how old a signature may be
// regardless of what the browser keeps.
//
// # Configuration
//
// Config can be populated from the environment (COOKIE_SECRETS is a comma
// separated list) and turned into a Manager with NewFromConfig.
package cookie
