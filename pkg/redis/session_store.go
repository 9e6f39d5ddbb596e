package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Each record is a hash {data, la, v} under prefix+id; la is the last access
// in unix milliseconds and v the version. A sorted set under prefix+"idx"
// scores ids by la so idle records can be found without SCAN.
const (
	fieldData       = "data"
	fieldLastAccess = "la"
	fieldVersion    = "v"
	indexSuffix     = "idx"
	pruneBatch      = 500
)

const insertScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'data', ARGV[2], 'la', ARGV[3], 'v', 1)
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[1])
if tonumber(ARGV[4]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return 1
`

var insertLua = redis.NewScript(insertScript)

// updateScript returns -1 when the record is gone, 0 on a version mismatch
// and {version, last_access} on success.
const updateScript = `
local v = redis.call('HGET', KEYS[1], 'v')
if not v then
  return -1
end
if v ~= ARGV[4] then
  return 0
end
local la = redis.call('HGET', KEYS[1], 'la')
local newla = ARGV[3]
if la and tonumber(la) > tonumber(newla) then
  newla = la
end
local nv = redis.call('HINCRBY', KEYS[1], 'v', 1)
redis.call('HSET', KEYS[1], 'data', ARGV[2], 'la', newla)
redis.call('ZADD', KEYS[2], newla, ARGV[1])
if tonumber(ARGV[5]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[5])
end
return {nv, newla}
`

var updateLua = redis.NewScript(updateScript)

const touchScript = `
local la = redis.call('HGET', KEYS[1], 'la')
if not la then
  return 0
end
if tonumber(ARGV[2]) > tonumber(la) then
  redis.call('HSET', KEYS[1], 'la', ARGV[2])
  redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
end
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`

var touchLua = redis.NewScript(touchScript)

// pruneScript deletes one batch of index entries scored below the cutoff.
// Entries whose hash already expired are dropped without being counted.
// Record keys are derived from the prefix, so it is not cluster safe.
const pruneScript = `
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
local n = 0
for _, id in ipairs(ids) do
  local key = ARGV[3] .. id
  local la = redis.call('HGET', key, 'la')
  if not la then
    redis.call('ZREM', KEYS[1], id)
  elseif tonumber(la) < tonumber(ARGV[1]) then
    redis.call('DEL', key)
    redis.call('ZREM', KEYS[1], id)
    n = n + 1
  end
end
return {n, #ids}
`

var pruneLua = redis.NewScript(pruneScript)

// SessionStore implements session.Store and session.Pruner on Redis.
// Compare-and-swap runs inside Lua scripts, so each operation is atomic on
// the server.
type SessionStore struct {
	db     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithPrefix sets the key prefix (default "session:").
func WithPrefix(prefix string) StoreOption {
	return func(s *SessionStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires records that are not written or touched for d. The
// expiry slides forward on every access.
func WithTTL(d time.Duration) StoreOption {
	return func(s *SessionStore) {
		s.ttl = d
	}
}

// NewSessionStore creates a Redis-backed record store.
func NewSessionStore(client redis.UniversalClient, opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		db:     client,
		prefix: "session:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionStoreFromConfig applies the session settings from cfg.
func NewSessionStoreFromConfig(client redis.UniversalClient, cfg Config) *SessionStore {
	return NewSessionStore(client, WithPrefix(cfg.SessionPrefix), WithTTL(cfg.SessionTTL))
}

func (s *SessionStore) key(id string) string { return s.prefix + id }
func (s *SessionStore) index() string        { return s.prefix + indexSuffix }
func (s *SessionStore) ttlMillis() int64     { return s.ttl.Milliseconds() }

func (s *SessionStore) Find(ctx context.Context, id string) (*session.Record, error) {
	vals, err := s.db.HMGet(ctx, s.key(id), fieldData, fieldLastAccess, fieldVersion).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(vals) != 3 || vals[1] == nil || vals[2] == nil {
		return nil, session.ErrRecordNotFound
	}

	la, err := parseInt(vals[1])
	if err != nil {
		return nil, fmt.Errorf("redis: corrupt last access for %s: %w", id, err)
	}
	version, err := parseInt(vals[2])
	if err != nil {
		return nil, fmt.Errorf("redis: corrupt version for %s: %w", id, err)
	}

	var data []byte
	if str, ok := vals[0].(string); ok {
		data = []byte(str)
	}

	return &session.Record{
		ID:         id,
		LastAccess: time.UnixMilli(la).UTC(),
		Data:       data,
		Version:    uint64(version),
	}, nil
}

func (s *SessionStore) Insert(ctx context.Context, rec *session.Record) error {
	ok, err := insertLua.Run(ctx, s.db,
		[]string{s.key(rec.ID), s.index()},
		rec.ID, rec.Data, rec.LastAccess.UnixMilli(), s.ttlMillis(),
	).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ok == 0 {
		return session.ErrRecordExists
	}
	rec.Version = 1
	return nil
}

func (s *SessionStore) Update(ctx context.Context, rec *session.Record) error {
	res, err := updateLua.Run(ctx, s.db,
		[]string{s.key(rec.ID), s.index()},
		rec.ID, rec.Data, rec.LastAccess.UnixMilli(), strconv.FormatUint(rec.Version, 10), s.ttlMillis(),
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch v := res.(type) {
	case int64:
		if v == -1 {
			return session.ErrRecordNotFound
		}
		return session.ErrVersionConflict
	case []any:
		if len(v) != 2 {
			return fmt.Errorf("redis: unexpected update reply %v", v)
		}
		version, err := parseInt(v[0])
		if err != nil {
			return fmt.Errorf("redis: unexpected update reply: %w", err)
		}
		la, err := parseInt(v[1])
		if err != nil {
			return fmt.Errorf("redis: unexpected update reply: %w", err)
		}
		rec.Version = uint64(version)
		rec.LastAccess = time.UnixMilli(la).UTC()
		return nil
	default:
		return fmt.Errorf("redis: unexpected update reply %T", res)
	}
}

func (s *SessionStore) Touch(ctx context.Context, id string, at time.Time) error {
	ok, err := touchLua.Run(ctx, s.db,
		[]string{s.key(id), s.index()},
		id, at.UnixMilli(), s.ttlMillis(),
	).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ok == 0 {
		return session.ErrRecordNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.index(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteIdle removes records last accessed before the cutoff, in batches.
func (s *SessionStore) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for {
		res, err := pruneLua.Run(ctx, s.db,
			[]string{s.index()},
			before.UnixMilli(), pruneBatch, s.prefix,
		).Int64Slice()
		if err != nil {
			return total, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if len(res) != 2 {
			return total, fmt.Errorf("redis: unexpected prune reply %v", res)
		}
		total += res[0]
		if res[1] < pruneBatch {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}

func parseInt(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("unexpected type")
	}
}

var (
	_ session.Store  = (*SessionStore)(nil)
	_ session.Pruner = (*SessionStore)(nil)
)
