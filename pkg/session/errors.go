package session

import "errors"

var (
	// ErrSetup indicates the Manager was used before it was configured
	ErrSetup = errors.New("session.setup_required")

	// ErrNoTransport indicates no transport is configured
	ErrNoTransport = errors.New("session.no_transport")

	// ErrNoStore indicates no store is configured
	ErrNoStore = errors.New("session.no_store")

	// ErrSessionIDNotExists indicates the bound session id has no backing record
	ErrSessionIDNotExists = errors.New("session.id_not_exists")

	// ErrSessionDataCorrupt indicates the stored blob could not be decoded
	ErrSessionDataCorrupt = errors.New("session.data_corrupt")

	// ErrWriteConflict indicates a write kept losing the compare-and-swap race
	ErrWriteConflict = errors.New("session.write_conflict")

	// ErrIDCollision indicates every minted id was already taken
	ErrIDCollision = errors.New("session.id_collision")

	// ErrTokenGeneration indicates id generation failed
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrTokenNotFound indicates the request carries no usable session token
	ErrTokenNotFound = errors.New("session.token_not_found")

	// ErrInvalidPath indicates a malformed dotted path
	ErrInvalidPath = errors.New("session.invalid_path")
)

// Record store errors. Store implementations must return these (possibly
// wrapped) so the Manager can tell the cases apart.
var (
	ErrRecordNotFound  = errors.New("session.record_not_found")
	ErrRecordExists    = errors.New("session.record_exists")
	ErrVersionConflict = errors.New("session.version_conflict")
)
