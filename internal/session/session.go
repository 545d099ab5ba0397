package session

import (
	"sync"
	"time"
)

// Session binds an opaque token to a principal held by the server. The
// principal is stored by reference and never interpreted.
type Session struct {
	sync.RWMutex

	Token     string
	Principal interface{}
	CreatedAt time.Time

	lastAccessedAt time.Time
}

// NewSession ...
func NewSession(token string, principal interface{}) *Session {
	now := time.Now()
	return &Session{
		Token:          token,
		Principal:      principal,
		CreatedAt:      now,
		lastAccessedAt: now,
	}
}

// LastAccessedAt returns the last time the session was looked up
func (sess *Session) LastAccessedAt() time.Time {
	sess.RLock()
	defer sess.RUnlock()
	return sess.lastAccessedAt
}

func (sess *Session) touch(now time.Time) {
	sess.Lock()
	sess.lastAccessedAt = now
	sess.Unlock()
}
