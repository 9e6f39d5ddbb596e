package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// IDLength is the length of every session identifier.
const IDLength = 32

// IDGenerator mints a new session identifier. Identifiers must be IDLength
// lowercase hex characters.
type IDGenerator func() (string, error)

// RandomID returns 128 bits from crypto/rand, hex encoded.
func RandomID() (string, error) {
	b := make([]byte, IDLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return hex.EncodeToString(b), nil
}

// UUIDID returns a random (v4) UUID with the dashes removed.
func UUIDID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}

// ValidID reports whether id has the session identifier format.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
