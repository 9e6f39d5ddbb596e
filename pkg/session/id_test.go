package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestRandomID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id, err := session.RandomID()
		require.NoError(t, err)
		require.Len(t, id, session.IDLength)
		require.True(t, session.ValidID(id), id)

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestUUIDID(t *testing.T) {
	t.Parallel()

	id, err := session.UUIDID()
	require.NoError(t, err)
	assert.Len(t, id, session.IDLength)
	assert.True(t, session.ValidID(id))
	assert.NotContains(t, id, "-")
	// version nibble of a v4 UUID
	assert.Equal(t, byte('4'), id[12])
}

func TestValidID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "0123456789abcdef0123456789abcdef", true},
		{"empty", "", false},
		{"too short", "0123456789abcdef", false},
		{"too long", "0123456789abcdef0123456789abcdef00", false},
		{"uppercase", "0123456789ABCDEF0123456789ABCDEF", false},
		{"dashes", "01234567-89ab-cdef-0123-456789ab", false},
		{"non hex", "0123456789abcdef0123456789abcdeg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.ValidID(tt.id))
		})
	}
}
