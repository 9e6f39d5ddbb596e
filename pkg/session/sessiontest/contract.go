// Package sessiontest holds the behavioural suite every session.Store
// implementation must pass.
package sessiontest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// RunStoreContract verifies that store adheres to the session.Store contract.
// It also exercises session.Pruner when the store implements it. Records are
// created under fresh random ids, so the suite can run against a shared
// database.
func RunStoreContract(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	newRecord := func(t *testing.T, data string) *session.Record {
		t.Helper()
		id, err := session.RandomID()
		require.NoError(t, err)
		return &session.Record{ID: id, LastAccess: base, Data: []byte(data)}
	}

	cleanup := func(t *testing.T, id string) {
		t.Cleanup(func() { _ = store.Delete(context.Background(), id) })
	}

	t.Run("Insert and Find", func(t *testing.T) {
		rec := newRecord(t, `{"foo":"bar"}`)
		cleanup(t, rec.ID)

		require.NoError(t, store.Insert(ctx, rec))
		assert.Equal(t, uint64(1), rec.Version)

		found, err := store.Find(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, found.ID)
		assert.Equal(t, []byte(`{"foo":"bar"}`), found.Data)
		assert.Equal(t, uint64(1), found.Version)
		assert.True(t, base.Equal(found.LastAccess), "last access %v, want %v", found.LastAccess, base)
	})

	t.Run("Find missing", func(t *testing.T) {
		id, err := session.RandomID()
		require.NoError(t, err)

		_, err = store.Find(ctx, id)
		assert.ErrorIs(t, err, session.ErrRecordNotFound)
	})

	t.Run("Insert duplicate", func(t *testing.T) {
		rec := newRecord(t, `{}`)
		cleanup(t, rec.ID)
		require.NoError(t, store.Insert(ctx, rec))

		dup := &session.Record{ID: rec.ID, LastAccess: base, Data: []byte(`{"other":true}`)}
		assert.ErrorIs(t, store.Insert(ctx, dup), session.ErrRecordExists)

		found, err := store.Find(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{}`), found.Data, "duplicate insert must not overwrite")
	})

	t.Run("Update bumps version", func(t *testing.T) {
		rec := newRecord(t, `{}`)
		cleanup(t, rec.ID)
		require.NoError(t, store.Insert(ctx, rec))

		rec.Data = []byte(`{"n":1}`)
		rec.LastAccess = base.Add(time.Second)
		require.NoError(t, store.Update(ctx, rec))
		assert.Equal(t, uint64(2), rec.Version)

		found, err := store.Find(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"n":1}`), found.Data)
		assert.Equal(t, uint64(2), found.Version)
		assert.True(t, base.Add(time.Second).Equal(found.LastAccess))
	})

	t.Run("Update with stale version", func(t *testing.T) {
		rec := newRecord(t, `{}`)
		cleanup(t, rec.ID)
		require.NoError(t, store.Insert(ctx, rec))

		first := &session.Record{ID: rec.ID, LastAccess: base, Data: []byte(`{"a":1}`), Version: rec.Version}
		second := &session.Record{ID: rec.ID, LastAccess: base, Data: []byte(`{"b":2}`), Version: rec.Version}

		require.NoError(t, store.Update(ctx, first))
		assert.ErrorIs(t, store.Update(ctx, second), session.ErrVersionConflict)

		found, err := store.Find(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), found.Data)
	})

	t.Run("Update missing", func(t *testing.T) {
		rec := newRecord(t, `{}`)
		rec.Version = 1
		assert.ErrorIs(t, store.Update(ctx, rec), session.ErrRecordNotFound)
	})

	t.Run("Update never moves last access backwards", func(t *testing.T) {
		rec := newRecord(t, `{}`)
		cleanup(t, rec.ID)
		require.NoError(t, store.Insert(ctx, rec))
		require.NoError(t, store.Touch(ctx, rec.ID, base.Add(time.Hour)))

		rec.Data = []byte(`{"x":true}`)
		rec.LastAccess = base.Add(time.Minute)
		require.NoError(t, store.Update(ctx, rec))

		found, err := store.Find(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, base.Add(time.Hour).Equal(found.LastAccess))
	})

	t.Run("Touch is monotonic", func(t *testing.T) {
		rec := newRecord(t, `{"keep":1}`)
		cleanup(t, rec.ID)
		require.NoError(t, store.Insert(ctx, rec))

		require.NoError(t, store.Touch(ctx, rec.ID, base.Add(2*time.Second)))
		require.NoError(t, store.Touch(ctx, rec.ID, base.Add(time.Second)))

		found, err := store.Find(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, base.Add(2*time.Second).Equal(found.LastAccess))
		assert.Equal(t, uint64(1), found.Version, "touch must not change the version")
		assert.Equal(t, []byte(`{"keep":1}`), found.Data)
	})

	t.Run("Touch missing", func(t *testing.T) {
		id, err := session.RandomID()
		require.NoError(t, err)
		assert.ErrorIs(t, store.Touch(ctx, id, base), session.ErrRecordNotFound)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		rec := newRecord(t, `{}`)
		require.NoError(t, store.Insert(ctx, rec))

		require.NoError(t, store.Delete(ctx, rec.ID))
		require.NoError(t, store.Delete(ctx, rec.ID))

		_, err := store.Find(ctx, rec.ID)
		assert.ErrorIs(t, err, session.ErrRecordNotFound)
	})

	t.Run("Concurrent updates", func(t *testing.T) {
		rec := newRecord(t, `{}`)
		cleanup(t, rec.ID)
		require.NoError(t, store.Insert(ctx, rec))

		const writers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				attempt := &session.Record{ID: rec.ID, LastAccess: base, Data: []byte(`{}`), Version: 1}
				if err := store.Update(ctx, attempt); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins, "exactly one writer may win a version")
		found, err := store.Find(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), found.Version)
	})

	pruner, ok := store.(session.Pruner)
	if !ok {
		return
	}

	t.Run("DeleteIdle", func(t *testing.T) {
		old := newRecord(t, `{}`)
		old.LastAccess = base.Add(-48 * time.Hour)
		fresh := newRecord(t, `{}`)
		cleanup(t, old.ID)
		cleanup(t, fresh.ID)
		require.NoError(t, store.Insert(ctx, old))
		require.NoError(t, store.Insert(ctx, fresh))

		n, err := pruner.DeleteIdle(ctx, base.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))

		_, err = store.Find(ctx, old.ID)
		assert.ErrorIs(t, err, session.ErrRecordNotFound)
		_, err = store.Find(ctx, fresh.ID)
		assert.NoError(t, err)
	})
}
