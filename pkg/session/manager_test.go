package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const testSecret = "test-secret-key-that-is-long-enough"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	manager *session.Manager
	store   *session.MemoryStore
	cookies *cookie.Manager
	clock   *testClock
}

func setupManager(t *testing.T, opts ...session.Option) *fixture {
	t.Helper()

	cookieMgr, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	f := &fixture{
		store:   session.NewMemoryStore(),
		cookies: cookieMgr,
		clock:   newTestClock(),
	}

	base := []session.Option{
		session.WithCookieManager(cookieMgr),
		session.WithStore(f.store),
		session.WithClock(f.clock.Now),
	}
	f.manager = session.New(append(base, opts...)...)
	t.Cleanup(func() { _ = f.manager.Close() })

	return f
}

// request builds a request carrying the cookies a previous response set.
func request(prev *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if prev != nil {
		for _, c := range prev.Result().Cookies() {
			r.AddCookie(c)
		}
	}
	return r
}

func (f *fixture) requestWithID(id string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: f.cookies.Sign("session_id", id)})
	return r
}

func (f *fixture) load(t *testing.T, r *http.Request) (*session.Session, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	sess, err := f.manager.Load(context.Background(), w, r)
	require.NoError(t, err)
	return sess, w
}

func TestManager_Load(t *testing.T) {
	t.Parallel()

	t.Run("new client gets record and cookie", func(t *testing.T) {
		f := setupManager(t)

		sess, w := f.load(t, request(nil))

		assert.True(t, session.ValidID(sess.ID()))
		assert.Equal(t, 1, f.store.Len())
		assert.Nil(t, sess.Cached(), "blob is not decoded on load")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "session_id", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.Zero(t, cookies[0].MaxAge)
		assert.True(t, cookies[0].Expires.IsZero(), "browser session cookie by default")

		id, err := f.cookies.Verify("session_id", cookies[0].Value)
		require.NoError(t, err)
		assert.Equal(t, sess.ID(), id)

		rec, err := f.store.Find(context.Background(), sess.ID())
		require.NoError(t, err)
		assert.Equal(t, f.clock.Now(), rec.LastAccess)
		assert.Equal(t, "{}", string(rec.Data))
	})

	t.Run("returning client keeps id", func(t *testing.T) {
		f := setupManager(t)

		first, w1 := f.load(t, request(nil))
		second, w2 := f.load(t, request(w1))

		assert.Equal(t, first.ID(), second.ID())
		assert.Empty(t, w2.Result().Cookies())
		assert.Equal(t, 1, f.store.Len())
	})

	t.Run("tampered cookie is treated as absent", func(t *testing.T) {
		f := setupManager(t)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "session_id", Value: "0123456789abcdef0123456789abcdef"})

		sess, w := f.load(t, r)
		assert.NotEqual(t, "0123456789abcdef0123456789abcdef", sess.ID())
		assert.Len(t, w.Result().Cookies(), 1)
	})

	t.Run("signed but malformed id is treated as absent", func(t *testing.T) {
		f := setupManager(t)

		sess, w := f.load(t, f.requestWithID("not-a-session-id"))
		assert.True(t, session.ValidID(sess.ID()))
		assert.Len(t, w.Result().Cookies(), 1)
	})

	t.Run("stale id gets a fresh record under the same id", func(t *testing.T) {
		f := setupManager(t)
		const stale = "00112233445566778899aabbccddeeff"

		sess, w := f.load(t, f.requestWithID(stale))

		assert.Equal(t, stale, sess.ID())
		assert.Empty(t, w.Result().Cookies())

		rec, err := f.store.Find(context.Background(), stale)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(rec.Data))
		assert.Equal(t, f.clock.Now(), rec.LastAccess)
	})

	t.Run("cookie expiry options", func(t *testing.T) {
		expires := time.Date(2035, 6, 1, 0, 0, 0, 0, time.UTC)
		f := setupManager(t, session.WithCookieExpires(expires))

		_, w := f.load(t, request(nil))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, expires, cookies[0].Expires.UTC())

		f = setupManager(t, session.WithCookieExpiresDays(2))
		_, w = f.load(t, request(nil))
		cookies = w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.WithinDuration(t, time.Now().Add(48*time.Hour), cookies[0].Expires, time.Minute)
	})

	t.Run("custom cookie name", func(t *testing.T) {
		f := setupManager(t, session.WithCookieName("sid"))

		_, w := f.load(t, request(nil))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "sid", cookies[0].Name)
	})
}

func TestManager_IDCollision(t *testing.T) {
	t.Parallel()

	const taken = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	const free = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	t.Run("regenerates on collision", func(t *testing.T) {
		ids := []string{taken, free}
		var mu sync.Mutex
		gen := func() (string, error) {
			mu.Lock()
			defer mu.Unlock()
			id := ids[0]
			ids = ids[1:]
			return id, nil
		}

		f := setupManager(t, session.WithIDGenerator(gen))
		require.NoError(t, f.store.Insert(context.Background(), &session.Record{ID: taken, Data: []byte(`{"owner":"other"}`)}))

		sess, _ := f.load(t, request(nil))
		assert.Equal(t, free, sess.ID())

		rec, err := f.store.Find(context.Background(), taken)
		require.NoError(t, err)
		assert.Equal(t, `{"owner":"other"}`, string(rec.Data), "existing record is never overwritten")
	})

	t.Run("gives up after configured attempts", func(t *testing.T) {
		f := setupManager(t, session.WithIDGenerator(func() (string, error) { return taken, nil }))
		require.NoError(t, f.store.Insert(context.Background(), &session.Record{ID: taken}))

		w := httptest.NewRecorder()
		_, err := f.manager.Load(context.Background(), w, request(nil))
		assert.ErrorIs(t, err, session.ErrIDCollision)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("generator failure", func(t *testing.T) {
		boom := errors.New("entropy exhausted")
		f := setupManager(t, session.WithIDGenerator(func() (string, error) { return "", boom }))

		_, err := f.manager.Load(context.Background(), httptest.NewRecorder(), request(nil))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("malformed generated id", func(t *testing.T) {
		f := setupManager(t, session.WithIDGenerator(func() (string, error) { return "short", nil }))

		_, err := f.manager.Load(context.Background(), httptest.NewRecorder(), request(nil))
		assert.ErrorIs(t, err, session.ErrTokenGeneration)
	})
}

func TestManager_Setup(t *testing.T) {
	t.Parallel()

	cookieMgr, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	t.Run("nil manager", func(t *testing.T) {
		var m *session.Manager
		_, err := m.Load(context.Background(), httptest.NewRecorder(), request(nil))
		assert.ErrorIs(t, err, session.ErrSetup)
	})

	t.Run("no store", func(t *testing.T) {
		m := session.New(session.WithCookieManager(cookieMgr))
		_, err := m.Load(context.Background(), httptest.NewRecorder(), request(nil))
		assert.ErrorIs(t, err, session.ErrSetup)
		assert.ErrorIs(t, err, session.ErrNoStore)
		assert.ErrorIs(t, m.Ready(), session.ErrNoStore)
	})

	t.Run("no transport", func(t *testing.T) {
		m := session.New(session.WithStore(session.NewMemoryStore()))
		_, err := m.Load(context.Background(), httptest.NewRecorder(), request(nil))
		assert.ErrorIs(t, err, session.ErrSetup)
		assert.ErrorIs(t, err, session.ErrNoTransport)
	})

	t.Run("ready", func(t *testing.T) {
		m := session.New(session.WithStore(session.NewMemoryStore()), session.WithCookieManager(cookieMgr))
		assert.NoError(t, m.Ready())

		var nilManager *session.Manager
		assert.ErrorIs(t, nilManager.Ready(), session.ErrSetup)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		m := session.New()
		assert.NoError(t, m.Close())
		assert.NoError(t, m.Close())
	})
}

func TestManager_Prune(t *testing.T) {
	t.Parallel()

	f := setupManager(t, session.WithConfig(func() session.Config {
		cfg := session.DefaultConfig()
		cfg.IdleTimeout = time.Hour
		cfg.PruneInterval = 0
		return cfg
	}()))
	ctx := context.Background()

	idle, _ := f.load(t, request(nil))
	f.clock.Advance(2 * time.Hour)
	active, _ := f.load(t, request(nil))

	n, err := f.manager.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.store.Find(ctx, idle.ID())
	assert.ErrorIs(t, err, session.ErrRecordNotFound)
	_, err = f.store.Find(ctx, active.ID())
	assert.NoError(t, err)
}

func TestManager_PruneDisabled(t *testing.T) {
	t.Parallel()

	f := setupManager(t)
	_, _ = f.load(t, request(nil))
	f.clock.Advance(24 * 365 * time.Hour)

	n, err := f.manager.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.store.Len())
}

func TestManager_PruneLoop(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, &session.Record{
		ID:         "cccccccccccccccccccccccccccccccc",
		LastAccess: time.Now().Add(-time.Hour),
	}))

	cfg := session.DefaultConfig()
	cfg.IdleTimeout = time.Minute
	cfg.PruneInterval = 10 * time.Millisecond
	m := session.NewFromConfig(cfg, session.WithStore(store))

	assert.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, m.Close())
}
