package session

import (
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// janitorInterval is how often expired sessions are purged when a TTL applies
const janitorInterval = time.Minute

// maxCreateAttempts bounds token regeneration on the (negligible) chance of
// a collision with a live session
const maxCreateAttempts = 3

// MemoryStore represents an in-memory session store. Sessions do not survive
// a restart of the process.
type MemoryStore struct {
	policy  ExpiryPolicy
	ttl     time.Duration
	entries *cache.Cache
}

// NewMemoryStore constructs and returns a new MemoryStore. With ExpireNever
// the ttl is ignored and no background cleanup runs: entries live until
// Remove is called.
func NewMemoryStore(policy ExpiryPolicy, ttl time.Duration) *MemoryStore {
	if policy == ExpireNever {
		return &MemoryStore{
			policy:  policy,
			entries: cache.New(cache.NoExpiration, 0),
		}
	}

	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &MemoryStore{
		policy:  policy,
		ttl:     ttl,
		entries: cache.New(ttl, janitorInterval),
	}
}

// Policy returns the store's expiry policy
func (s *MemoryStore) Policy() ExpiryPolicy {
	return s.policy
}

// TTL returns the store's session ttl (zero when sessions never expire)
func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}

// Create ...
func (s *MemoryStore) Create(principal interface{}) (string, error) {
	var err error
	for i := 0; i < maxCreateAttempts; i++ {
		var sid ID
		sid, err = NewSessionID()
		if err != nil {
			log.WithError(err).Error("error generating session id")
			return "", err
		}

		sess := NewSession(sid.String(), principal)
		if err = s.entries.Add(sess.Token, sess, cache.DefaultExpiration); err == nil {
			return sess.Token, nil
		}
		log.Warn("session id collision (regenerating)")
	}
	return "", err
}

// Get ...
func (s *MemoryStore) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	val, found := s.entries.Get(token)
	if !found {
		return nil, false
	}
	sess := val.(*Session)
	sess.touch(time.Now())

	if s.policy == ExpireSliding {
		// Replace fails if the session was removed concurrently, which must
		// not bring it back to life.
		if err := s.entries.Replace(token, sess, cache.DefaultExpiration); err != nil {
			return nil, false
		}
	}

	return sess, true
}

// Remove ...
func (s *MemoryStore) Remove(token string) {
	s.entries.Delete(token)
}

// Count returns the number of live sessions (expired entries not yet purged
// may be included)
func (s *MemoryStore) Count() int {
	return s.entries.ItemCount()
}
