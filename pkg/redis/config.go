package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"` // ConnectionURL is the URL of the database. It should be in the format "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`             // RetryAttempts is the number of retry attempts to connect to the database.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`            // RetryInterval is the interval between retry attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`          // ConnectTimeout bounds the whole connect phase, retries included.

	SessionPrefix string        `env:"REDIS_SESSION_PREFIX" envDefault:"session:"` // SessionPrefix namespaces session keys.
	SessionTTL    time.Duration `env:"REDIS_SESSION_TTL" envDefault:"0"`           // SessionTTL expires records idle for this long (0 keeps them until pruned).
}
