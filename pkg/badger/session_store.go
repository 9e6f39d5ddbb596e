package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// An entry is version (8 bytes) | last access unix nanos (8 bytes) | data,
// big endian.
const headerSize = 16

// pruneBatch bounds the deletes per transaction to stay under badger's
// transaction size limit.
const pruneBatch = 1000

// conflictRetries bounds how often Insert and Touch re-run after badger
// reports a transaction conflict.
const conflictRetries = 5

type entry struct {
	version    uint64
	lastAccess int64
	data       []byte
}

func encodeEntry(e entry) []byte {
	buf := make([]byte, headerSize+len(e.data))
	binary.BigEndian.PutUint64(buf[0:8], e.version)
	binary.BigEndian.PutUint64(buf[8:16], uint64(e.lastAccess))
	copy(buf[headerSize:], e.data)
	return buf
}

func decodeEntry(buf []byte) (entry, error) {
	if len(buf) < headerSize {
		return entry{}, ErrCorruptEntry
	}
	return entry{
		version:    binary.BigEndian.Uint64(buf[0:8]),
		lastAccess: int64(binary.BigEndian.Uint64(buf[8:16])),
		data:       append([]byte{}, buf[headerSize:]...),
	}, nil
}

// SessionStore implements session.Store and session.Pruner on an embedded
// badger database. Compare-and-swap runs inside a read-write transaction,
// and badger's conflict detection rejects a concurrent commit on the same
// key.
type SessionStore struct {
	db     *badger.DB
	prefix []byte
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithKeyPrefix sets the key prefix (default "s/").
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *SessionStore) {
		if prefix != "" {
			s.prefix = []byte(prefix)
		}
	}
}

// NewSessionStore creates a record store on db. The caller owns db.
func NewSessionStore(db *badger.DB, opts ...StoreOption) *SessionStore {
	s := &SessionStore{db: db, prefix: []byte("s/")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) key(id string) []byte {
	k := make([]byte, 0, len(s.prefix)+len(id))
	k = append(k, s.prefix...)
	return append(k, id...)
}

func (s *SessionStore) get(txn *badger.Txn, id string) (entry, error) {
	item, err := txn.Get(s.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return entry{}, session.ErrRecordNotFound
	}
	if err != nil {
		return entry{}, err
	}
	var e entry
	err = item.Value(func(val []byte) error {
		var derr error
		e, derr = decodeEntry(val)
		return derr
	})
	return e, err
}

func (s *SessionStore) Find(ctx context.Context, id string) (*session.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var e entry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		e, err = s.get(txn, id)
		return err
	})
	if err != nil {
		return nil, wrap("find", err)
	}
	return &session.Record{
		ID:         id,
		LastAccess: time.Unix(0, e.lastAccess).UTC(),
		Data:       e.data,
		Version:    e.version,
	}, nil
}

func (s *SessionStore) Insert(ctx context.Context, rec *session.Record) error {
	err := s.retry(ctx, func(txn *badger.Txn) error {
		if _, err := s.get(txn, rec.ID); err == nil {
			return session.ErrRecordExists
		} else if !errors.Is(err, session.ErrRecordNotFound) {
			return err
		}
		return txn.Set(s.key(rec.ID), encodeEntry(entry{
			version:    1,
			lastAccess: rec.LastAccess.UnixNano(),
			data:       rec.Data,
		}))
	})
	if err != nil {
		return wrap("insert", err)
	}
	rec.Version = 1
	return nil
}

func (s *SessionStore) Update(ctx context.Context, rec *session.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var next entry
	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := s.get(txn, rec.ID)
		if err != nil {
			return err
		}
		if cur.version != rec.Version {
			return session.ErrVersionConflict
		}
		next = entry{
			version:    cur.version + 1,
			lastAccess: max(cur.lastAccess, rec.LastAccess.UnixNano()),
			data:       rec.Data,
		}
		return txn.Set(s.key(rec.ID), encodeEntry(next))
	})
	if errors.Is(err, badger.ErrConflict) {
		return session.ErrVersionConflict
	}
	if err != nil {
		return wrap("update", err)
	}
	rec.Version = next.version
	rec.LastAccess = time.Unix(0, next.lastAccess).UTC()
	return nil
}

func (s *SessionStore) Touch(ctx context.Context, id string, at time.Time) error {
	err := s.retry(ctx, func(txn *badger.Txn) error {
		cur, err := s.get(txn, id)
		if err != nil {
			return err
		}
		if at.UnixNano() <= cur.lastAccess {
			return nil
		}
		cur.lastAccess = at.UnixNano()
		return txn.Set(s.key(id), encodeEntry(cur))
	})
	return wrap("touch", err)
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(id))
	})
	return wrap("delete", err)
}

// DeleteIdle removes records last accessed before the cutoff. Candidates
// are collected from a read snapshot, then re-checked inside the deleting
// transaction so a record touched in between survives.
func (s *SessionStore) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	cutoff := before.UnixNano()

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			stale := false
			err := item.Value(func(val []byte) error {
				if len(val) < headerSize {
					return nil
				}
				stale = int64(binary.BigEndian.Uint64(val[8:16])) < cutoff
				return nil
			})
			if err != nil {
				return err
			}
			if stale {
				ids = append(ids, string(item.Key()[len(s.prefix):]))
			}
		}
		return nil
	})
	if err != nil {
		return 0, wrap("prune", err)
	}

	var total int64
	for start := 0; start < len(ids); start += pruneBatch {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		batch := ids[start:min(start+pruneBatch, len(ids))]

		var n int64
		err := s.retry(ctx, func(txn *badger.Txn) error {
			n = 0
			for _, id := range batch {
				cur, err := s.get(txn, id)
				if errors.Is(err, session.ErrRecordNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				if cur.lastAccess >= cutoff {
					continue
				}
				if err := txn.Delete(s.key(id)); err != nil {
					return err
				}
				n++
			}
			return nil
		})
		if err != nil {
			return total, wrap("prune", err)
		}
		total += n
	}
	return total, nil
}

// retry runs fn in a read-write transaction, re-running it when the
// commit loses to a concurrent transaction.
func (s *SessionStore) retry(ctx context.Context, fn func(*badger.Txn) error) error {
	var err error
	for range conflictRetries {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func wrap(op string, err error) error {
	switch {
	case err == nil,
		errors.Is(err, session.ErrRecordNotFound),
		errors.Is(err, session.ErrRecordExists),
		errors.Is(err, session.ErrVersionConflict),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("badger: %s session: %w", op, err)
}

var (
	_ session.Store  = (*SessionStore)(nil)
	_ session.Pruner = (*SessionStore)(nil)
)
