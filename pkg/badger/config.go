package badger

import "time"

// Config holds the embedded store settings.
type Config struct {
	Dir         string        `env:"BADGER_DIR"`                             // Dir is the data directory; empty runs in memory.
	SyncWrites  bool          `env:"BADGER_SYNC_WRITES" envDefault:"false"`  // SyncWrites fsyncs every commit.
	GCInterval  time.Duration `env:"BADGER_GC_INTERVAL" envDefault:"10m"`    // GCInterval is the value log GC period.
	GCThreshold float64       `env:"BADGER_GC_THRESHOLD" envDefault:"0.5"`   // GCThreshold is the discard ratio passed to RunValueLogGC.
	KeyPrefix   string        `env:"BADGER_SESSION_PREFIX" envDefault:"s/"` // KeyPrefix namespaces session keys.
}
