package cookie

import (
	"net/http"
	"strings"
	"time"
)

// Config holds cookie manager configuration
type Config struct {
	Secrets      string        `env:"COOKIE_SECRETS" envDefault:""`
	Path         string        `env:"COOKIE_PATH" envDefault:"/"`
	Domain       string        `env:"COOKIE_DOMAIN" envDefault:""`
	Secure       bool          `env:"COOKIE_SECURE" envDefault:"false"`
	HttpOnly     bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite     http.SameSite `env:"COOKIE_SAME_SITE" envDefault:"2"` // 2 = SameSiteLaxMode
	SignedMaxAge time.Duration `env:"COOKIE_SIGNED_MAX_AGE" envDefault:"744h"`
}

// DefaultConfig returns default cookie configuration
func DefaultConfig() Config {
	return Config{
		Path:         "/",
		HttpOnly:     true,
		SameSite:     http.SameSiteLaxMode,
		SignedMaxAge: 31 * 24 * time.Hour,
	}
}

// parseSecrets splits the comma separated secrets list; the first entry signs,
// the rest are accepted for verification only.
func (c Config) parseSecrets() []string {
	if c.Secrets == "" {
		return nil
	}

	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// NewFromConfig creates a new Manager from the provided Config.
// Only non-zero values from the config are applied.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	configOpts := make([]Option, 0, 5)

	if cfg.Path != "" {
		configOpts = append(configOpts, WithPath(cfg.Path))
	}
	if cfg.Domain != "" {
		configOpts = append(configOpts, WithDomain(cfg.Domain))
	}
	if cfg.Secure {
		configOpts = append(configOpts, WithSecure(cfg.Secure))
	}
	configOpts = append(configOpts, WithHTTPOnly(cfg.HttpOnly))
	if cfg.SameSite != 0 {
		configOpts = append(configOpts, WithSameSite(cfg.SameSite))
	}

	configOpts = append(configOpts, opts...)

	m, err := New(cfg.parseSecrets(), configOpts...)
	if err != nil {
		return nil, err
	}
	return m.WithSignedMaxAge(cfg.SignedMaxAge), nil
}
