// Package pathmatch classifies request paths against glob-style patterns.
//
// Patterns are anchored on the full path and case sensitive:
//
//	?   matches exactly one character (not '/')
//	*   matches zero or more characters within a single path segment
//	**  matches zero or more path segments
package pathmatch

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidPattern is returned for malformed patterns
	ErrInvalidPattern = errors.New("error: invalid path pattern")
)

// Match reports whether path matches pattern. Malformed patterns never match.
func Match(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	if err != nil {
		log.WithError(err).Warnf("bad path pattern %q", pattern)
		return false
	}
	return ok
}

// IsExempt reports whether path matches at least one of patterns
func IsExempt(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if Match(pattern, path) {
			return true
		}
	}
	return false
}

// Whitelist is a validated list of exempt path patterns
type Whitelist struct {
	patterns []string
}

// NewWhitelist validates patterns and returns a Whitelist
func NewWhitelist(patterns ...string) (*Whitelist, error) {
	for _, pattern := range patterns {
		if pattern == "" || pattern[0] != '/' || !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}

	return &Whitelist{patterns: append([]string(nil), patterns...)}, nil
}

// Exempt ...
func (wl *Whitelist) Exempt(path string) bool {
	return IsExempt(path, wl.patterns)
}

// Patterns returns a copy of the whitelist's patterns
func (wl *Whitelist) Patterns() []string {
	return append([]string(nil), wl.patterns...)
}
