package assistant

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultStoreCap = 1024
	defaultStoreTTL = 2 * time.Hour
)

// Store keeps live sessions in an expirable LRU: idle sessions age
// out after the TTL and the oldest are evicted past the cap. Session
// state is process-local; an evicted session is simply gone.
type Store struct {
	sessions *expirable.LRU[string, *Session]
	greeting string
}

func NewStore(capacity int, ttl time.Duration, greeting string) *Store {
	if capacity <= 0 {
		capacity = defaultStoreCap
	}
	if ttl <= 0 {
		ttl = defaultStoreTTL
	}
	return &Store{
		sessions: expirable.NewLRU[string, *Session](capacity, nil, ttl),
		greeting: greeting,
	}
}

// Create opens a fresh session seeded with the greeting message.
func (s *Store) Create() *Session {
	id := fmt.Sprintf("sess-%d", time.Now().UnixNano())
	sess := NewSession(id, s.greeting)
	s.sessions.Add(id, sess)
	return sess
}

// Get returns the live session for an id, refreshing its TTL.
func (s *Store) Get(id string) (*Session, bool) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	// Re-add so activity extends the session's lifetime.
	s.sessions.Add(id, sess)
	return sess, true
}

// Delete drops a session.
func (s *Store) Delete(id string) {
	s.sessions.Remove(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}
