package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidExpiryPolicy is returned by ParseExpiryPolicy for unknown policies
	ErrInvalidExpiryPolicy = errors.New("error: invalid session expiry policy")
)

// Store maps opaque tokens to principals. Implementations must be safe for
// concurrent use. Absence is a normal result, not an error.
type Store interface {
	// Create generates a fresh token bound to principal
	Create(principal interface{}) (string, error)

	// Get looks up the session for token
	Get(token string) (*Session, bool)

	// Remove deletes the session for token. Removing an unknown token is a no-op.
	Remove(token string)
}

// ExpiryPolicy decides how long a session lives in a store
type ExpiryPolicy int

const (
	// ExpireNever keeps sessions until they are explicitly removed
	ExpireNever ExpiryPolicy = iota

	// ExpireFixed expires sessions a fixed TTL after creation
	ExpireFixed

	// ExpireSliding expires sessions a TTL after their last access
	ExpireSliding
)

// DefaultSessionTTL is used by the fixed and sliding policies when no TTL is configured
const DefaultSessionTTL = 30 * time.Minute

func (p ExpiryPolicy) String() string {
	switch p {
	case ExpireNever:
		return "none"
	case ExpireFixed:
		return "fixed"
	case ExpireSliding:
		return "sliding"
	default:
		return fmt.Sprintf("ExpiryPolicy(%d)", int(p))
	}
}

// ParseExpiryPolicy parses one of "none", "fixed" or "sliding"
func ParseExpiryPolicy(s string) (ExpiryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ExpireNever, nil
	case "fixed":
		return ExpireFixed, nil
	case "sliding":
		return ExpireSliding, nil
	default:
		return ExpireNever, fmt.Errorf("%w: %q", ErrInvalidExpiryPolicy, s)
	}
}
