package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	minSecretLength = 32
	separator       = "|"
)

// Manager issues, verifies and clears cookies. Signed values carry the
// issue time and are bound to the cookie name, so a value signed for one
// cookie cannot be replayed under another.
type Manager struct {
	secrets      []string
	defaults     Options
	maxSignedAge time.Duration
	now          func() time.Time
}

func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		secrets:  secrets,
		defaults: applyOptions(defaults, opts),
		now:      time.Now,
	}, nil
}

// WithSignedMaxAge returns a copy of the manager that rejects signed values
// older than d. Zero disables the check.
func (m *Manager) WithSignedMaxAge(d time.Duration) *Manager {
	cp := *m
	cp.maxSignedAge = d
	return &cp
}

func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	if !isValidName(name) {
		return ErrInvalidName
	}

	options := applyOptions(m.defaults, opts)

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Expires:  options.Expires,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
	return nil
}

func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Delete expires the cookie on the client. Pass the options the cookie was
// set with so path, domain and secure match the issued cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string, opts ...Option) {
	options := applyOptions(m.defaults, opts)

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
		Secure:   options.Secure,
	})
}

func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) error {
	return m.Set(w, name, m.Sign(name, value), opts...)
}

func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	signed, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.Verify(name, signed)
}

// Sign produces a tamper-evident token for value under the given name.
// Format: base64url(value) "|" unix-seconds "|" base64url(hmac-sha256).
func (m *Manager) Sign(name, value string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value))
	ts := strconv.FormatInt(m.now().Unix(), 10)
	return encoded + separator + ts + separator + mac(m.secrets[0], name, encoded, ts)
}

// Verify checks a token produced by Sign and returns the original value.
// Every configured secret is tried so tokens survive key rotation.
func (m *Manager) Verify(name, signed string) (string, error) {
	parts := strings.Split(signed, separator)
	if len(parts) != 3 {
		return "", ErrInvalidFormat
	}
	encoded, ts, signature := parts[0], parts[1], parts[2]

	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", ErrInvalidFormat
	}

	value, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidFormat
	}

	valid := false
	for _, secret := range m.secrets {
		expected := mac(secret, name, encoded, ts)
		if subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1 {
			valid = true
			break
		}
	}
	if !valid {
		return "", ErrInvalidSignature
	}

	if m.maxSignedAge > 0 && m.now().Sub(time.Unix(issued, 0)) > m.maxSignedAge {
		return "", ErrSignatureExpired
	}

	return string(value), nil
}

func mac(secret, name, encoded, ts string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(name))
	h.Write([]byte(separator))
	h.Write([]byte(encoded))
	h.Write([]byte(separator))
	h.Write([]byte(ts))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// isValidName reports whether name is an RFC 6265 token.
func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte("()<>@,;:\\\"/[]?={}", c) >= 0 {
			return false
		}
	}
	return true
}
