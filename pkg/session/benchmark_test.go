package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func benchManager(b *testing.B) *session.Manager {
	b.Helper()
	cookieMgr, err := cookie.New([]string{testSecret})
	if err != nil {
		b.Fatal(err)
	}
	m := session.New(
		session.WithStore(session.NewMemoryStore()),
		session.WithCookieManager(cookieMgr),
	)
	b.Cleanup(func() { _ = m.Close() })
	return m
}

// benchSession loads a session and returns it with a request carrying its
// cookie, so later loads take the returning-client path.
func benchSession(b *testing.B, m *session.Manager) (*session.Session, *http.Request) {
	b.Helper()
	w := httptest.NewRecorder()
	sess, err := m.Load(context.Background(), w, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		b.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return sess, r
}

func BenchmarkMemoryStore_Find(b *testing.B) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	for i := range 1000 {
		_ = store.Insert(ctx, &session.Record{ID: strconv.Itoa(i), LastAccess: time.Now(), Data: []byte(`{}`)})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Find(ctx, strconv.Itoa(i%1000))
	}
}

func BenchmarkMemoryStore_Update(b *testing.B) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	rec := &session.Record{ID: "bench", LastAccess: time.Now(), Data: []byte(`{}`)}
	_ = store.Insert(ctx, rec)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Update(ctx, rec)
	}
}

func BenchmarkManager_LoadNew(b *testing.B) {
	m := benchManager(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Load(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
}

func BenchmarkManager_LoadReturning(b *testing.B) {
	m := benchManager(b)
	_, r := benchSession(b, m)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Load(ctx, httptest.NewRecorder(), r)
	}
}

func BenchmarkSession_Get(b *testing.B) {
	m := benchManager(b)
	sess, _ := benchSession(b, m)
	ctx := context.Background()
	_ = sess.Set(ctx, "user", map[string]any{"id": 9527, "name": "ann"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = sess.Get(ctx, "user")
	}
}

func BenchmarkSession_Set(b *testing.B) {
	m := benchManager(b)
	sess, _ := benchSession(b, m)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sess.Set(ctx, "counter", i)
	}
}

func BenchmarkSession_SetParallel(b *testing.B) {
	m := benchManager(b)
	_, r := benchSession(b, m)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		i := 0
		for pb.Next() {
			sess, err := m.Load(ctx, httptest.NewRecorder(), r)
			if err != nil {
				b.Error(err)
				return
			}
			_ = sess.Set(ctx, "k"+strconv.Itoa(i%8), i)
			i++
		}
	})
}

func BenchmarkCodec_JSON(b *testing.B) {
	codec := session.JSONCodec{}
	data := session.Map{"user": map[string]any{"id": 9527, "name": "ann"}, "visits": 3}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blob, _ := codec.Marshal(data)
		_, _ = codec.Unmarshal(blob)
	}
}
