package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const validID = "0123456789abcdef0123456789abcdef"

func newCookieManager(t *testing.T) *cookie.Manager {
	t.Helper()
	m, err := cookie.New([]string{testSecret})
	require.NoError(t, err)
	return m
}

func TestCookieTransport(t *testing.T) {
	t.Parallel()

	cm := newCookieManager(t)
	tr := session.NewCookieTransport(cm, "sid", cookie.WithSecure(true))

	w := httptest.NewRecorder()
	require.NoError(t, tr.SetToken(w, validID))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].Secure)
	assert.NotEqual(t, validID, cookies[0].Value, "value is signed")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	got, err := tr.GetToken(r)
	require.NoError(t, err)
	assert.Equal(t, validID, got)

	t.Run("missing", func(t *testing.T) {
		_, err := tr.GetToken(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, session.ErrTokenNotFound)
	})

	t.Run("unsigned", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: validID})
		_, err := tr.GetToken(r)
		assert.ErrorIs(t, err, session.ErrTokenNotFound)
	})

	t.Run("signed under another name", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: cm.Sign("other", validID)})
		_, err := tr.GetToken(r)
		assert.ErrorIs(t, err, session.ErrTokenNotFound)
	})

	t.Run("clear", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, tr.ClearToken(w))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestCookieTransport_ClearMatchesIssued(t *testing.T) {
	t.Parallel()

	cm := newCookieManager(t)
	manager := session.New(
		session.WithStore(session.NewMemoryStore()),
		session.WithCookieManager(cm, cookie.WithPath("/app"), cookie.WithDomain("example.com"), cookie.WithSecure(true)),
	)
	t.Cleanup(func() { _ = manager.Close() })

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	sess, err := manager.Load(r.Context(), w, r)
	require.NoError(t, err)
	issued := w.Result().Cookies()
	require.Len(t, issued, 1)

	w = httptest.NewRecorder()
	sess, err = manager.Load(r.Context(), w, withCookie(r, issued[0]))
	require.NoError(t, err)
	require.NoError(t, sess.Clear(r.Context()))

	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "/app", cleared[0].Path)
	assert.Equal(t, "example.com", cleared[0].Domain)
	assert.True(t, cleared[0].Secure)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func withCookie(r *http.Request, c *http.Cookie) *http.Request {
	r = r.Clone(r.Context())
	r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	return r
}

func TestHeaderTransport(t *testing.T) {
	t.Parallel()

	cm := newCookieManager(t)
	tr := session.NewHeaderTransport(cm, "X-Session-Token")

	w := httptest.NewRecorder()
	require.NoError(t, tr.SetToken(w, validID))
	value := w.Header().Get("X-Session-Token")
	assert.Contains(t, value, "Bearer ")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Session-Token", value)
	got, err := tr.GetToken(r)
	require.NoError(t, err)
	assert.Equal(t, validID, got)

	t.Run("raw id is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Session-Token", "Bearer "+validID)
		_, err := tr.GetToken(r)
		assert.ErrorIs(t, err, session.ErrTokenNotFound)
	})

	t.Run("custom prefix", func(t *testing.T) {
		tr := session.NewHeaderTransport(cm, "X-Session", session.WithHeaderPrefix(""))
		w := httptest.NewRecorder()
		require.NoError(t, tr.SetToken(w, validID))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Session", w.Header().Get("X-Session"))
		got, err := tr.GetToken(r)
		require.NoError(t, err)
		assert.Equal(t, validID, got)
	})

	t.Run("clear", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, tr.SetToken(w, validID))
		require.NoError(t, tr.ClearToken(w))
		assert.Empty(t, w.Header().Get("X-Session-Token"))
	})
}

func TestCompositeTransport(t *testing.T) {
	t.Parallel()

	cm := newCookieManager(t)
	cookieTr := session.NewCookieTransport(cm, "sid")
	headerTr := session.NewHeaderTransport(cm, "X-Session-Token")
	tr := session.NewCompositeTransport(cookieTr, headerTr)

	w := httptest.NewRecorder()
	require.NoError(t, tr.SetToken(w, validID))
	assert.Len(t, w.Result().Cookies(), 1)
	assert.NotEmpty(t, w.Header().Get("X-Session-Token"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Session-Token", w.Header().Get("X-Session-Token"))
	got, err := tr.GetToken(r)
	require.NoError(t, err)
	assert.Equal(t, validID, got)

	_, err = tr.GetToken(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, session.ErrTokenNotFound)
}

func TestManager_HeaderTransport(t *testing.T) {
	t.Parallel()

	cm := newCookieManager(t)
	store := session.NewMemoryStore()
	m := session.New(
		session.WithStore(store),
		session.WithTransport(session.NewHeaderTransport(cm, "X-Session-Token")),
	)
	t.Cleanup(func() { _ = m.Close() })

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	first, err := m.Load(r.Context(), w, r)
	require.NoError(t, err)
	require.NoError(t, first.Set(r.Context(), "k", "v"))

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.Header.Set("X-Session-Token", w.Header().Get("X-Session-Token"))
	second, err := m.Load(r2.Context(), httptest.NewRecorder(), r2)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())

	v, err := second.Get(r2.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v.Raw())
}
