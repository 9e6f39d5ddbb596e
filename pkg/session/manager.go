package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Manager is the process-wide session setup: it owns the record store, the
// transport and the codec, and hands out one Session per request.
type Manager struct {
	store         Store
	transport     Transport
	config        Config
	cookieManager *cookie.Manager
	cookieOptions []cookie.Option
	codec         Codec
	newID         IDGenerator
	logger        *slog.Logger
	recorder      Recorder
	now           func() time.Time
	initErr       error

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a new session manager with the given options
func New(opts ...Option) *Manager {
	m := &Manager{
		config:   DefaultConfig(),
		newID:    RandomID,
		recorder: noopRecorder{},
		now:      time.Now,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	m.logger = m.logger.With(logger.Component("session"))

	if m.codec == nil {
		codec, err := CodecByName(m.config.Codec)
		if err != nil {
			m.initErr = err
		}
		m.codec = codec
	}

	switch m.config.MissingRecord {
	case "":
		m.config.MissingRecord = MissingRecordError
	case MissingRecordError, MissingRecordRecreate:
	default:
		m.initErr = errors.Join(m.initErr, fmt.Errorf("session: unknown missing record policy %q", m.config.MissingRecord))
	}

	if m.transport == nil && m.cookieManager != nil {
		cookieOpts := append(cookieOptions(m.config), m.cookieOptions...)
		m.transport = NewCookieTransport(m.cookieManager, m.config.CookieName, cookieOpts...)
	}

	if pruner, ok := m.store.(Pruner); ok && m.config.IdleTimeout > 0 && m.config.PruneInterval > 0 {
		m.wg.Add(1)
		go m.pruneLoop(pruner)
	}

	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.config }

// Ready reports ErrSetup when the manager lacks a store or transport or
// was built from an invalid configuration.
func (m *Manager) Ready() error { return m.ready() }

func (m *Manager) ready() error {
	if m == nil {
		return ErrSetup
	}
	if m.initErr != nil {
		return errors.Join(ErrSetup, m.initErr)
	}
	if m.store == nil {
		return errors.Join(ErrSetup, ErrNoStore)
	}
	if m.transport == nil {
		return errors.Join(ErrSetup, ErrNoTransport)
	}
	return nil
}

// Load binds a Session to the request. A request without a valid id gets a
// freshly minted id, an empty record and a signed cookie. A request whose id
// has no record (for example after pruning) gets an empty record under the
// same id. The blob itself is not decoded until first use.
func (m *Manager) Load(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	id, err := m.transport.GetToken(r)
	minted := err != nil || !ValidID(id)
	if minted {
		blob, err := m.codec.Marshal(Map{})
		if err != nil {
			return nil, err
		}
		id, err = m.mint(ctx, blob)
		if err != nil {
			return nil, err
		}
		if err := m.transport.SetToken(w, id); err != nil {
			_ = m.store.Delete(ctx, id)
			return nil, err
		}
		m.recorder.RecordCreated(ReasonNew)
		m.logger.DebugContext(ctx, "session created", logger.SessionID(id))
	} else if err := m.ensureRecord(ctx, id); err != nil {
		return nil, err
	}

	return &Session{id: id, manager: m, w: w, minted: minted}, nil
}

// mint generates ids until one can be inserted with blob as its data.
func (m *Manager) mint(ctx context.Context, blob []byte) (string, error) {
	attempts := max(m.config.IDAttempts, 1)
	for range attempts {
		id, err := m.newID()
		if err != nil {
			return "", err
		}
		if !ValidID(id) {
			return "", fmt.Errorf("%w: malformed id %q", ErrTokenGeneration, id)
		}

		err = m.insert(ctx, id, blob)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrRecordExists) {
			return "", err
		}
		m.recorder.IDCollision()
		m.logger.WarnContext(ctx, "session id collision, regenerating", logger.SessionID(id))
	}
	return "", ErrIDCollision
}

// ensureRecord makes sure a record exists for an id the client presented.
func (m *Manager) ensureRecord(ctx context.Context, id string) error {
	_, err := m.find(ctx, id)
	if err == nil || !errors.Is(err, ErrRecordNotFound) {
		return err
	}

	blob, err := m.codec.Marshal(Map{})
	if err != nil {
		return err
	}
	err = m.insert(ctx, id, blob)
	if errors.Is(err, ErrRecordExists) {
		// a concurrent request created it first
		return nil
	}
	if err != nil {
		return err
	}
	m.recorder.RecordCreated(ReasonStale)
	m.logger.DebugContext(ctx, "session record recreated for returning client", logger.SessionID(id))
	return nil
}

func (m *Manager) insert(ctx context.Context, id string, blob []byte) error {
	start := time.Now()
	err := m.store.Insert(ctx, &Record{ID: id, LastAccess: m.now(), Data: blob})
	m.recorder.StoreOperation("insert", time.Since(start), err)
	return err
}

func (m *Manager) find(ctx context.Context, id string) (*Record, error) {
	start := time.Now()
	rec, err := m.store.Find(ctx, id)
	m.recorder.StoreOperation("find", time.Since(start), notFoundIsOK(err))
	return rec, err
}

func (m *Manager) update(ctx context.Context, rec *Record) error {
	start := time.Now()
	err := m.store.Update(ctx, rec)
	m.recorder.StoreOperation("update", time.Since(start), err)
	return err
}

func (m *Manager) touch(ctx context.Context, id string) error {
	start := time.Now()
	err := m.store.Touch(ctx, id, m.now())
	m.recorder.StoreOperation("touch", time.Since(start), err)
	return err
}

func (m *Manager) delete(ctx context.Context, id string) error {
	start := time.Now()
	err := m.store.Delete(ctx, id)
	m.recorder.StoreOperation("delete", time.Since(start), err)
	return err
}

func notFoundIsOK(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return nil
	}
	return err
}

// Prune deletes records idle for longer than Config.IdleTimeout. It is a
// no-op when pruning is disabled or the store cannot prune.
func (m *Manager) Prune(ctx context.Context) (int64, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	pruner, ok := m.store.(Pruner)
	if !ok || m.config.IdleTimeout <= 0 {
		return 0, nil
	}
	return m.prune(ctx, pruner)
}

func (m *Manager) prune(ctx context.Context, pruner Pruner) (int64, error) {
	cutoff := m.now().Add(-m.config.IdleTimeout)
	start := time.Now()
	n, err := pruner.DeleteIdle(ctx, cutoff)
	m.recorder.StoreOperation("prune", time.Since(start), err)
	if err != nil {
		m.logger.ErrorContext(ctx, "session prune failed", logger.Error(err))
		return n, err
	}
	m.recorder.Pruned(n)
	if n > 0 {
		m.logger.InfoContext(ctx, "idle sessions pruned", slog.Int64("count", n), slog.Time("cutoff", cutoff))
	}
	return n, nil
}

func (m *Manager) pruneLoop(pruner Pruner) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.config.PruneInterval)
			_, _ = m.prune(ctx, pruner)
			cancel()
		case <-m.done:
			return
		}
	}
}

// Close stops background pruning. It is safe to call more than once.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.closeOnce.Do(func() { close(m.done) })
	m.wg.Wait()
	return nil
}
