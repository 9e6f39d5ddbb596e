package badger

import "errors"

var (
	ErrFailedToOpen      = errors.New("failed to open badger database")
	ErrCorruptEntry      = errors.New("corrupt session entry")
	ErrHealthcheckFailed = errors.New("badger healthcheck failed")
)
