package session

import "time"

// Missing record policies.
const (
	// MissingRecordError reports ErrSessionIDNotExists when the bound id has
	// no backing record.
	MissingRecordError = "error"

	// MissingRecordRecreate inserts a fresh empty record for the bound id and
	// re-issues the cookie.
	MissingRecordRecreate = "recreate"
)

// Config holds session configuration
type Config struct {
	// CookieName is the name of the session cookie (default: "session_id")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"session_id"`

	// CookieExpires sets an absolute cookie expiry (RFC 3339).
	// Zero together with CookieExpiresDays == 0 yields a browser-session cookie.
	CookieExpires time.Time `env:"SESSION_COOKIE_EXPIRES"`

	// CookieExpiresDays sets a relative cookie expiry, evaluated when the cookie is issued.
	CookieExpiresDays float64 `env:"SESSION_COOKIE_EXPIRES_DAYS"`

	// SecureCookies enables the Secure flag on session cookies (recommended for production)
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	// Codec selects the blob format: "json" or "gob".
	Codec string `env:"SESSION_CODEC" envDefault:"json"`

	// MissingRecord is MissingRecordError or MissingRecordRecreate.
	MissingRecord string `env:"SESSION_MISSING_RECORD" envDefault:"error"`

	// IDAttempts bounds id regeneration when a minted id is already taken.
	IDAttempts int `env:"SESSION_ID_ATTEMPTS" envDefault:"3"`

	// WriteRetries bounds re-reads after a version conflict.
	WriteRetries int `env:"SESSION_WRITE_RETRIES" envDefault:"3"`

	// IdleTimeout evicts records not accessed for this long (0 disables pruning).
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"0"`

	// PruneInterval is how often the background pruner runs.
	PruneInterval time.Duration `env:"SESSION_PRUNE_INTERVAL" envDefault:"10m"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		CookieName:    "session_id",
		Codec:         "json",
		MissingRecord: MissingRecordError,
		IDAttempts:    3,
		WriteRetries:  3,
		PruneInterval: 10 * time.Minute,
	}
}

// NewFromConfig creates a new Manager from the provided Config.
// Requires Store via options. Cookie manager required for default cookie transport.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	configOpts := []Option{
		WithConfig(cfg),
	}

	configOpts = append(configOpts, opts...)

	return New(configOpts...)
}
