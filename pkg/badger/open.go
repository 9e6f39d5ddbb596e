package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// Open opens the database described by cfg. Badger's own log lines are
// routed to log at their matching levels.
func Open(cfg Config, log *slog.Logger) (*badger.DB, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(&slogAdapter{log: log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpen, err)
	}
	return db, nil
}

// RunGC reclaims value log space every interval until ctx is done.
// In-memory databases have no value log and return immediately.
func RunGC(ctx context.Context, db *badger.DB, interval time.Duration, threshold float64, log *slog.Logger) {
	if db.Opts().InMemory || interval <= 0 {
		return
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rounds, err := gc(db, threshold)
			if err != nil {
				log.ErrorContext(ctx, "badger value log gc failed", slog.Any("error", err))
				continue
			}
			if rounds > 0 {
				log.DebugContext(ctx, "badger value log gc completed", slog.Int("rounds", rounds))
			}
		case <-ctx.Done():
			return
		}
	}
}

func gc(db *badger.DB, threshold float64) (int, error) {
	rounds := 0
	for {
		err := db.RunValueLogGC(threshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return rounds, nil
		}
		if err != nil {
			return rounds, fmt.Errorf("badger: gc: %w", err)
		}
		rounds++
	}
}

type slogAdapter struct {
	log *slog.Logger
}

func (l *slogAdapter) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *slogAdapter) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *slogAdapter) Infof(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *slogAdapter) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
