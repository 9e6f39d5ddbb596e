package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
)

// Healthcheck reports ErrHealthcheckFailed once db is closed or can no
// longer serve a read transaction.
func Healthcheck(db *badger.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if db.IsClosed() {
			return errors.Join(ErrHealthcheckFailed, badger.ErrDBClosed)
		}
		if err := db.View(func(*badger.Txn) error { return nil }); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
