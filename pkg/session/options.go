package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithStore sets the record store
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithTransport sets a custom session transport
func WithTransport(transport Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithCookieManager sets the cookie manager for the default cookie transport.
// Extra options are applied after the ones derived from Config.
func WithCookieManager(cookieMgr *cookie.Manager, opts ...cookie.Option) Option {
	return func(m *Manager) {
		m.cookieManager = cookieMgr
		m.cookieOptions = opts
	}
}

// WithConfig sets custom configuration
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithCookieName sets the session cookie name
func WithCookieName(name string) Option {
	return func(m *Manager) {
		m.config.CookieName = name
	}
}

// WithCookieExpires sets an absolute expiry on issued cookies
func WithCookieExpires(t time.Time) Option {
	return func(m *Manager) {
		m.config.CookieExpires = t
	}
}

// WithCookieExpiresDays sets a relative expiry on issued cookies
func WithCookieExpiresDays(days float64) Option {
	return func(m *Manager) {
		m.config.CookieExpiresDays = days
	}
}

// WithCodec sets the blob codec, overriding Config.Codec
func WithCodec(codec Codec) Option {
	return func(m *Manager) {
		m.codec = codec
	}
}

// WithIDGenerator replaces the identifier generator
func WithIDGenerator(gen IDGenerator) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// WithLogger sets the logger. If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithClock overrides the time source used for last access bookkeeping
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMissingRecordPolicy sets MissingRecordError or MissingRecordRecreate
func WithMissingRecordPolicy(policy string) Option {
	return func(m *Manager) {
		m.config.MissingRecord = policy
	}
}
