package session

import "time"

// Record creation reasons passed to Recorder.RecordCreated.
const (
	ReasonNew        = "new"
	ReasonStale      = "stale"
	ReasonRecreate   = "recreate"
	ReasonRegenerate = "regenerate"
)

// Recorder receives session lifecycle events. Implementations must be safe
// for concurrent use.
type Recorder interface {
	RecordCreated(reason string)
	RecordDestroyed()
	StoreOperation(op string, took time.Duration, err error)
	WriteConflict()
	IDCollision()
	Pruned(n int64)
}

type noopRecorder struct{}

func (noopRecorder) RecordCreated(string)                        {}
func (noopRecorder) RecordDestroyed()                            {}
func (noopRecorder) StoreOperation(string, time.Duration, error) {}
func (noopRecorder) WriteConflict()                              {}
func (noopRecorder) IDCollision()                                {}
func (noopRecorder) Pruned(int64)                                {}
