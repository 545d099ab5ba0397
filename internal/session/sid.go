package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// InvalidSessionID represents an empty, invalid session ID
const InvalidSessionID ID = ""

// idLength is the number of random bytes in a session ID (128 bits)
const idLength = 16

// ID represents an opaque, randomly generated session token
type ID string

// ErrInvalidID is returned when a malformed session id is passed to ParseSessionID()
var ErrInvalidID = errors.New("error: invalid session id")

// NewSessionID creates and returns a new random session ID. An error is
// returned only if there was an error generating random bytes.
func NewSessionID() (ID, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return InvalidSessionID, err
	}

	return ID(base64.RawURLEncoding.EncodeToString(buf)), nil
}

// ParseSessionID checks that `value` has the shape of a session ID. It says
// nothing about whether the ID belongs to a live session.
func ParseSessionID(value string) (ID, error) {
	buf, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return InvalidSessionID, ErrInvalidID
	}

	if len(buf) != idLength {
		return InvalidSessionID, ErrInvalidID
	}

	return ID(value), nil
}

func (sid ID) String() string {
	return string(sid)
}
