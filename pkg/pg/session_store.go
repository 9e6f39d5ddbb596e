package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// SessionStore keeps session records in a PostgreSQL table with the columns
// id, last_access, data and version. Migrate creates the default "sessions"
// table; other table names need their own migration.
type SessionStore struct {
	pool  *pgxpool.Pool
	table string
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithTable sets the session table name. The name is quoted as an identifier.
func WithTable(name string) StoreOption {
	return func(s *SessionStore) {
		if name != "" {
			s.table = pgx.Identifier{name}.Sanitize()
		}
	}
}

// NewSessionStore creates a record store on top of the pool.
func NewSessionStore(pool *pgxpool.Pool, opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		pool:  pool,
		table: pgx.Identifier{"sessions"}.Sanitize(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the quoted table name.
func (s *SessionStore) Table() string { return s.table }

func (s *SessionStore) Find(ctx context.Context, id string) (*session.Record, error) {
	var rec session.Record
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, last_access, data, version FROM %s WHERE id = $1`, s.table),
		id,
	).Scan(&rec.ID, &rec.LastAccess, &rec.Data, &rec.Version)
	if IsNotFoundError(err) {
		return nil, session.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: find session: %w", err)
	}
	rec.LastAccess = rec.LastAccess.UTC()
	return &rec, nil
}

func (s *SessionStore) Insert(ctx context.Context, rec *session.Record) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, last_access, data, version) VALUES ($1, $2, $3, 1)`, s.table),
		rec.ID, rec.LastAccess, nonNil(rec.Data),
	)
	if IsDuplicateKeyError(err) {
		return session.ErrRecordExists
	}
	if err != nil {
		return fmt.Errorf("pg: insert session: %w", err)
	}
	rec.Version = 1
	return nil
}

func (s *SessionStore) Update(ctx context.Context, rec *session.Record) error {
	var (
		version    uint64
		lastAccess time.Time
	)
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE %s
			SET data = $3, last_access = GREATEST(last_access, $4), version = version + 1
			WHERE id = $1 AND version = $2
			RETURNING version, last_access`, s.table),
		rec.ID, rec.Version, nonNil(rec.Data), rec.LastAccess,
	).Scan(&version, &lastAccess)
	if err == nil {
		rec.Version = version
		rec.LastAccess = lastAccess.UTC()
		return nil
	}
	if !IsNotFoundError(err) {
		return fmt.Errorf("pg: update session: %w", err)
	}

	// No row matched: either the version moved on or the record is gone.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, s.table),
		rec.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("pg: update session: %w", err)
	}
	if exists {
		return session.ErrVersionConflict
	}
	return session.ErrRecordNotFound
}

func (s *SessionStore) Touch(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET last_access = GREATEST(last_access, $2) WHERE id = $1`, s.table),
		id, at,
	)
	if err != nil {
		return fmt.Errorf("pg: touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrRecordNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table), id); err != nil {
		return fmt.Errorf("pg: delete session: %w", err)
	}
	return nil
}

// DeleteIdle removes records last accessed before the cutoff.
func (s *SessionStore) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE last_access < $1`, s.table), before)
	if err != nil {
		return 0, fmt.Errorf("pg: prune sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

var (
	_ session.Store  = (*SessionStore)(nil)
	_ session.Pruner = (*SessionStore)(nil)
)
