package session

import "net/http"

// Transport defines how session identifiers travel between client and server.
// GetToken returns only verified identifiers; a missing, tampered or
// malformed token is reported as ErrTokenNotFound.
type Transport interface {
	// GetToken extracts the session id from the request
	GetToken(r *http.Request) (string, error)

	// SetToken sends the session id in the response
	SetToken(w http.ResponseWriter, token string) error

	// ClearToken removes the session id from the client
	ClearToken(w http.ResponseWriter) error
}
