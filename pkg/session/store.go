package session

import (
	"context"
	"time"
)

// Record is the persisted form of a session.
type Record struct {
	ID         string
	LastAccess time.Time
	Data       []byte

	// Version is the compare-and-swap token. Insert sets it to 1 and every
	// successful Update increments it. Touch leaves it alone.
	Version uint64
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Data != nil {
		cp.Data = append([]byte(nil), r.Data...)
	}
	return &cp
}

// Store defines the interface for session record persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Find returns the record for id or ErrRecordNotFound.
	Find(ctx context.Context, id string) (*Record, error)

	// Insert stores a new record and sets rec.Version to 1.
	// Returns ErrRecordExists if the id is taken.
	Insert(ctx context.Context, rec *Record) error

	// Update writes Data if the stored version equals rec.Version, advances
	// last access to rec.LastAccess (never backwards) and increments
	// rec.Version. Returns ErrVersionConflict on a stale version and
	// ErrRecordNotFound if the record is gone.
	Update(ctx context.Context, rec *Record) error

	// Touch advances last access to at, never moving it backwards.
	Touch(ctx context.Context, id string, at time.Time) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
}

// Pruner is implemented by stores that can evict idle records.
type Pruner interface {
	// DeleteIdle removes records whose last access is before the cutoff and
	// reports how many were removed.
	DeleteIdle(ctx context.Context, before time.Time) (int64, error)
}
