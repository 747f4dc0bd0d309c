package interaction

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrInvalidTTL is returned when a session is registered with ttl <= 0.
	ErrInvalidTTL = errors.New("interaction: ttl must be positive")
	// ErrNilContinuation is returned when a session has nothing to run.
	ErrNilContinuation = errors.New("interaction: continuation is nil")
)

// Session is one pending continuation.
type Session struct {
	Key          ScopeKey
	Continuation Continuation
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Generation   uint64
	// Shared sessions accept events from any user at the same location.
	Shared bool
	// Command names the command that opened the session, for logs.
	Command string
}

// Expired reports whether the session is logically absent at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Handle identifies a registered session generation.
type Handle struct {
	Key        ScopeKey
	Generation uint64
	ExpiresAt  time.Time
}

// SessionOption customizes a registered session.
type SessionOption func(*Session)

// Shared lets other users act on the session's message.
func Shared() SessionOption {
	return func(s *Session) { s.Shared = true }
}

// Command labels the session with the command that opened it.
func Command(name string) SessionOption {
	return func(s *Session) { s.Command = name }
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store is the in-process session registry. All methods are safe for
// concurrent use; one mutex guards the map and its location index.
type Store struct {
	mu         sync.RWMutex
	sessions   map[ScopeKey]*Session
	byLocation map[Location]map[ScopeKey]struct{}
	seq        uint64
	now        func() time.Time
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions:   make(map[ScopeKey]*Session),
		byLocation: make(map[Location]map[ScopeKey]struct{}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

// Register inserts or replaces the session at key. Replacing assigns a new
// generation, which voids in-flight invocations of the old one.
func (s *Store) Register(key ScopeKey, c Continuation, ttl time.Duration, opts ...SessionOption) (Handle, error) {
	if ttl <= 0 {
		return Handle{}, ErrInvalidTTL
	}
	if c == nil {
		return Handle{}, ErrNilContinuation
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(key, c, ttl, opts), nil
}

// Lookup returns the live session at key.
func (s *Store) Lookup(key ScopeKey) (Session, bool) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok || sess.Expired(now) {
		return Session{}, false
	}
	return *sess, true
}

// Remove deletes the session at key. It is a no-op if there is none.
func (s *Store) Remove(key ScopeKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(key)
}

// RemoveIf deletes the session at key only if it is still generation gen.
func (s *Store) RemoveIf(key ScopeKey, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok || sess.Generation != gen {
		return false
	}
	s.deleteLocked(key)
	return true
}

// ReplaceIf installs c at next if the session at key is still generation
// gen, removing the old session when next differs from key. The returned
// bool is false when the generation check failed and nothing changed.
func (s *Store) ReplaceIf(key ScopeKey, gen uint64, next ScopeKey, c Continuation, ttl time.Duration, opts ...SessionOption) (Handle, bool, error) {
	if ttl <= 0 {
		return Handle{}, false, ErrInvalidTTL
	}
	if c == nil {
		return Handle{}, false, ErrNilContinuation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok || sess.Generation != gen {
		return Handle{}, false, nil
	}
	if next != key {
		s.deleteLocked(key)
	}
	return s.insertLocked(next, c, ttl, opts), true, nil
}

// Sweep evicts sessions that expired before now and returns how many.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for key, sess := range s.sessions {
		if sess.Expired(now) {
			s.deleteLocked(key)
			removed++
		}
	}
	return removed
}

// AtLocation returns the live sessions of every user at loc, oldest first.
func (s *Store) AtLocation(loc Location) []Session {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Session
	for key := range s.byLocation[loc] {
		if sess := s.sessions[key]; !sess.Expired(now) {
			out = append(out, *sess)
		}
	}
	sortSessions(out)
	return out
}

// Len returns the number of stored sessions, including expired ones not
// yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Snapshot returns every live session, oldest first.
func (s *Store) Snapshot() []Session {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if !sess.Expired(now) {
			out = append(out, *sess)
		}
	}
	sortSessions(out)
	return out
}

// insertLocked also evicts expired sessions so the map stays bounded
// between periodic sweeps.
func (s *Store) insertLocked(key ScopeKey, c Continuation, ttl time.Duration, opts []SessionOption) Handle {
	now := s.now()
	s.sweepLocked(now)
	s.seq++
	sess := &Session{
		Key:          key,
		Continuation: c,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		Generation:   s.seq,
	}
	for _, opt := range opts {
		opt(sess)
	}

	s.sessions[key] = sess
	loc := key.Location()
	keys := s.byLocation[loc]
	if keys == nil {
		keys = make(map[ScopeKey]struct{})
		s.byLocation[loc] = keys
	}
	keys[key] = struct{}{}

	return Handle{Key: key, Generation: sess.Generation, ExpiresAt: sess.ExpiresAt}
}

func (s *Store) deleteLocked(key ScopeKey) {
	if _, ok := s.sessions[key]; !ok {
		return
	}
	delete(s.sessions, key)
	loc := key.Location()
	if keys := s.byLocation[loc]; keys != nil {
		delete(keys, key)
		if len(keys) == 0 {
			delete(s.byLocation, loc)
		}
	}
}

func sortSessions(list []Session) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Generation != list[j].Generation {
			return list[i].Generation < list[j].Generation
		}
		return list[i].Key.String() < list[j].Key.String()
	})
}
