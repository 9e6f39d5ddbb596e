package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Middleware loads the Session before the handler runs and stores it in the
// request context. A load failure ends the request with 500.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.Load(r.Context(), w, r)
		if err != nil {
			m.logError(r.Context(), err)
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}

		ctx := WithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LazyMiddleware defers loading until a handler first asks for the Session,
// so requests that never touch it cost no store round trips.
func (m *Manager) LazyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc := NewAccessor(m, w, r)
		ctx := context.WithValue(r.Context(), sessionContextKey{}, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Accessor memoizes the Session of one request.
type Accessor struct {
	manager *Manager
	w       http.ResponseWriter
	r       *http.Request

	once    sync.Once
	session *Session
	err     error
}

// NewAccessor creates an Accessor for the request.
func NewAccessor(m *Manager, w http.ResponseWriter, r *http.Request) *Accessor {
	return &Accessor{manager: m, w: w, r: r}
}

// Session loads the Session on first use and returns the same value (or
// error) on every later call.
func (a *Accessor) Session(ctx context.Context) (*Session, error) {
	a.once.Do(func() {
		a.session, a.err = a.manager.Load(ctx, a.w, a.r)
		if a.err != nil {
			a.manager.logError(ctx, a.err)
		}
	})
	return a.session, a.err
}

func (m *Manager) logError(ctx context.Context, err error) {
	if m == nil || m.logger == nil {
		return
	}
	m.logger.ErrorContext(ctx, "failed to load session", logger.Error(err))
}
