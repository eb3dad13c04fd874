// Package session keeps per-session mosaic state in memory.
//
// A session owns everything the engine needs across requests: the palette,
// the source image bytes the palette indices point into, and the tile cache
// that memoizes resized tiles between generate calls. Sessions expire after
// a TTL of inactivity and are swept by a background timer; eviction is the
// only thing that ever drops a tile cache.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tilewright/mosaic/internal/mosaic"
)

// Session is the unit of isolation between users.
//
// The embedded mutex serializes mutations for one session id: concurrent
// analyze calls would otherwise corrupt the palette's index re-basing, and
// concurrent generate calls would race on the tile cache map. Handlers hold
// the lock for the duration of a request touching the session. Requests for
// different sessions never contend.
type Session struct {
	sync.Mutex

	ID      string
	Palette []mosaic.PaletteEntry
	Sources [][]byte
	Tiles   *mosaic.TileCache

	lastSeen time.Time
}

// Store is an in-memory session store with TTL-based expiration.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	clock    clockwork.Clock
}

// NewStore creates a session store whose sessions expire after ttl of
// inactivity.
func NewStore(ttl time.Duration, clock clockwork.Clock) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		clock:    clock,
	}
}

// GetOrCreate returns the session for id, creating it if absent. The
// session's expiry is pushed out either way.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{
			ID:    id,
			Tiles: mosaic.NewTileCache(),
		}
		s.sessions[id] = sess
	}
	sess.lastSeen = s.clock.Now()
	return sess
}

// Get returns the session for id if it exists and has not expired,
// refreshing its expiry on a hit.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.clock.Now().Sub(sess.lastSeen) > s.ttl {
		// Expired but not yet swept: treat as gone.
		return nil, false
	}
	sess.lastSeen = s.clock.Now()
	return sess, true
}

// Evict removes a session immediately, dropping its palette, source bytes
// and tile cache.
func (s *Store) Evict(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictExpired removes all sessions idle longer than the TTL and returns
// the count evicted.
func (s *Store) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartEvictionTimer starts a background goroutine that periodically sweeps
// expired sessions. Returns a stop function to clean up the goroutine.
func (s *Store) StartEvictionTimer(interval time.Duration) func() {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if evicted := s.EvictExpired(); evicted > 0 {
					slog.Debug("Evicted expired sessions",
						"count", evicted,
						"remaining", s.Len(),
					)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}
