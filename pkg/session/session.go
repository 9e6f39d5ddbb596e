package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Session is the per-request view of one session record. It is bound to a
// single request and must not be shared between goroutines.
type Session struct {
	id      string
	cached  Map
	manager *Manager
	w       http.ResponseWriter
	// minted is set when this request issued the id, so the client has
	// never presented it.
	minted bool
}

// ID returns the bound session identifier.
func (s *Session) ID() string { return s.id }

// Cached returns a copy of the mapping from the most recent load or write,
// or nil if the record has not been read yet.
func (s *Session) Cached() Map { return s.cached.Clone() }

// Get returns the value stored under key. Every read refreshes the record's
// last access time.
func (s *Session) Get(ctx context.Context, key string) (Value, error) {
	data, err := s.read(ctx)
	if err != nil {
		return Value{}, err
	}
	return data.Value(key), nil
}

// GetDefault returns the value under key, or def when the key is absent.
func (s *Session) GetDefault(ctx context.Context, key string, def any) (any, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return v.Or(def), nil
}

// Has reports whether key is present.
func (s *Session) Has(ctx context.Context, key string) (bool, error) {
	v, err := s.Get(ctx, key)
	return v.Exists(), err
}

// Data returns a snapshot of the whole mapping.
func (s *Session) Data(ctx context.Context) (Map, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return data.Clone(), nil
}

// Path looks up a dotted path. Missing intermediate keys yield an absent
// Value rather than an error.
func (s *Session) Path(ctx context.Context, path string) (Value, error) {
	data, err := s.read(ctx)
	if err != nil {
		return Value{}, err
	}
	return data.Path(path), nil
}

// Bind decodes the value under key into out and reports whether the key was
// present.
func (s *Session) Bind(ctx context.Context, key string, out any) (bool, error) {
	v, err := s.Get(ctx, key)
	if err != nil || !v.Exists() {
		return false, err
	}
	if err := v.Decode(out); err != nil {
		return true, fmt.Errorf("session: bind %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key and persists the record.
func (s *Session) Set(ctx context.Context, key string, value any) error {
	return s.mutate(ctx, func(data Map) error {
		data[key] = value
		return nil
	})
}

// SetPath stores value under a dotted path, creating intermediate maps.
func (s *Session) SetPath(ctx context.Context, path string, value any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	return s.mutate(ctx, func(data Map) error {
		return data.setPath(parts, value)
	})
}

// Delete removes key and persists the record. Removing an absent key still
// counts as a write.
func (s *Session) Delete(ctx context.Context, key string) error {
	return s.mutate(ctx, func(data Map) error {
		delete(data, key)
		return nil
	})
}

// Clear expires the client cookie and deletes the record. The Session stays
// bound to its id, so later calls follow the missing record policy.
func (s *Session) Clear(ctx context.Context) error {
	m := s.manager
	if err := m.transport.ClearToken(s.w); err != nil {
		return err
	}
	if err := m.delete(ctx, s.id); err != nil {
		return err
	}
	s.cached = nil
	m.recorder.RecordDestroyed()
	m.logger.DebugContext(ctx, "session cleared", logger.SessionID(s.id))
	return nil
}

// Regenerate moves the session data to a freshly minted id, deletes the old
// record and re-issues the cookie. Call it after privilege changes such as
// login. An id minted during the current request is already fresh and is
// kept as is.
func (s *Session) Regenerate(ctx context.Context) error {
	m := s.manager
	rec, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	if s.minted {
		return nil
	}

	id, err := m.mint(ctx, rec.Data)
	if err != nil {
		return err
	}
	if err := m.transport.SetToken(s.w, id); err != nil {
		_ = m.delete(ctx, id)
		return err
	}
	if err := m.delete(ctx, s.id); err != nil {
		m.logger.WarnContext(ctx, "failed to delete previous session record",
			logger.SessionID(s.id), logger.Error(err))
	}

	m.recorder.RecordCreated(ReasonRegenerate)
	m.logger.DebugContext(ctx, "session regenerated", logger.SessionID(id))
	s.id = id
	s.minted = true
	return nil
}

// read loads the mapping and refreshes last access.
func (s *Session) read(ctx context.Context) (Map, error) {
	_, data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.manager.touch(ctx, s.id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrSessionIDNotExists
		}
		return nil, err
	}
	return data, nil
}

// mutate runs a read-modify-write cycle. A version conflict means another
// request wrote in between, so fn is re-applied to the fresh mapping.
func (s *Session) mutate(ctx context.Context, fn func(Map) error) error {
	m := s.manager
	retries := max(m.config.WriteRetries, 0)

	for attempt := 0; ; attempt++ {
		rec, data, err := s.load(ctx)
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}

		blob, err := m.codec.Marshal(data)
		if err != nil {
			return fmt.Errorf("session: encode: %w", err)
		}
		rec.Data = blob
		rec.LastAccess = m.now()

		err = m.update(ctx, rec)
		switch {
		case err == nil:
			s.cached = data
			return nil
		case errors.Is(err, ErrVersionConflict):
			if attempt >= retries {
				m.recorder.WriteConflict()
				m.logger.WarnContext(ctx, "session write kept conflicting",
					logger.SessionID(s.id), logger.RetryCount(attempt))
				return ErrWriteConflict
			}
		case errors.Is(err, ErrRecordNotFound):
			if m.config.MissingRecord != MissingRecordRecreate || attempt >= retries {
				return ErrSessionIDNotExists
			}
		default:
			return err
		}
	}
}

// load fetches and decodes the bound record, applying the missing record
// policy.
func (s *Session) load(ctx context.Context) (*Record, Map, error) {
	m := s.manager
	if err := m.ready(); err != nil {
		return nil, nil, err
	}

	rec, err := m.find(ctx, s.id)
	if errors.Is(err, ErrRecordNotFound) {
		rec, err = s.recreate(ctx)
	}
	if err != nil {
		return nil, nil, err
	}

	data, err := m.codec.Unmarshal(rec.Data)
	if err != nil {
		m.logger.ErrorContext(ctx, "session data corrupt", logger.SessionID(s.id), logger.Error(err))
		return nil, nil, errors.Join(ErrSessionDataCorrupt, err)
	}
	s.cached = data.Clone()
	return rec, data, nil
}

func (s *Session) recreate(ctx context.Context) (*Record, error) {
	m := s.manager
	if m.config.MissingRecord != MissingRecordRecreate {
		return nil, ErrSessionIDNotExists
	}

	blob, err := m.codec.Marshal(Map{})
	if err != nil {
		return nil, err
	}
	if err := m.insert(ctx, s.id, blob); err != nil && !errors.Is(err, ErrRecordExists) {
		return nil, err
	}
	if err := m.transport.SetToken(s.w, s.id); err != nil {
		return nil, err
	}
	m.recorder.RecordCreated(ReasonRecreate)
	m.logger.DebugContext(ctx, "session record recreated", logger.SessionID(s.id))

	rec, err := m.find(ctx, s.id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, ErrSessionIDNotExists
	}
	return rec, err
}
