package session

import "context"

type sessionContextKey struct{}

// WithSession adds a session to the context
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// FromContext returns the request's Session. With LazyMiddleware the Session
// is loaded on the first call and reused afterwards. Without either
// middleware it returns ErrSetup.
func FromContext(ctx context.Context) (*Session, error) {
	switch v := ctx.Value(sessionContextKey{}).(type) {
	case *Session:
		if v != nil {
			return v, nil
		}
	case *Accessor:
		if v != nil {
			return v.Session(ctx)
		}
	}
	return nil, ErrSetup
}

// MustFromContext returns the request's Session or panics
func MustFromContext(ctx context.Context) *Session {
	session, err := FromContext(ctx)
	if err != nil {
		panic("session: " + err.Error())
	}
	return session
}
