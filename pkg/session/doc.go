// Package session provides server-side HTTP sessions: a signed cookie
// carries an opaque identifier, and the session data lives in a record store
// keyed by that identifier.
//
// # Architecture
//
// A Manager is configured once at process start. It owns the Store, the
// Transport that moves identifiers between client and server, and the Codec
// that turns the session mapping into a stored blob. For every request the
// Manager hands out a Session bound to one identifier.
//
//	┌────────┐  signed id  ┌────────────┐
//	│ Client │ ──────────► │  Transport │
//	└────────┘             └────────────┘
//	                             │
//	                             ▼
//	┌──────────┐  Load  ┌─────────────────┐
//	│ Session  │ ◄───── │     Manager     │
//	└──────────┘        └─────────────────┘
//	     │ Find / Update / Touch
//	     ▼
//	┌────────┐
//	│ Store  │ (memory, postgres, redis, mongo, badger)
//	└────────┘
//
// Loading a Session is cheap. A client without a valid cookie gets a new
// identifier, an empty record and a cookie. A client whose record has
// disappeared gets a new empty record under the same identifier. The blob is
// only read when a handler asks for data.
//
// # Usage
//
//	cookieMgr, _ := cookie.New([]string{secret})
//	manager := session.New(
//	    session.WithStore(session.NewMemoryStore()),
//	    session.WithCookieManager(cookieMgr),
//	)
//	defer manager.Close()
//
//	mux.Handle("/", manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    sess := session.MustFromContext(r.Context())
//	    if err := sess.SetPath(r.Context(), "user.id", 9527); err != nil {
//	        // handle
//	    }
//	    user, _ := sess.GetDefault(r.Context(), "user", nil)
//	    _ = user
//	})))
//
// LazyMiddleware defers the Load until the handler first calls FromContext.
//
// # Consistency
//
// Every read refreshes the record's last access time, which never moves
// backwards. Writes are read-modify-write cycles guarded by the record
// version: when another request wrote in between, the change is re-applied
// to the fresh data up to Config.WriteRetries times before ErrWriteConflict
// is returned. Writes to the same key remain last-writer-wins.
//
// After Clear the Session stays bound to its identifier. With the default
// MissingRecordError policy further calls fail with ErrSessionIDNotExists;
// MissingRecordRecreate starts over with an empty record instead.
//
// # Error Handling
//
//   - ErrSetup              – Manager missing, or configured without store/transport
//   - ErrSessionIDNotExists – the bound identifier has no record
//   - ErrSessionDataCorrupt – the stored blob cannot be decoded
//   - ErrWriteConflict      – a write lost the version race too many times
//   - ErrIDCollision        – every minted identifier was already taken
//
// Store implementations report ErrRecordNotFound, ErrRecordExists and
// ErrVersionConflict. The sessiontest package checks them against the
// contract.
package session
