package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/tplt/internal/ledger"
	"github.com/Simplici0/tplt/internal/master"
)

// State is everything one user works on: the product master and the record
// ledger. Handlers mutate it only through the master and ledger methods.
type State struct {
	Master *master.Master
	Ledger *ledger.Ledger
}

// NewState returns an empty State.
func NewState() *State {
	return &State{Master: master.New(), Ledger: ledger.New()}
}

// Entry is one live session. Lock it for the duration of a request.
type Entry struct {
	sync.Mutex
	ID    string
	State *State

	lastSeen time.Time
}

// Store maps session IDs to their state and evicts idle sessions.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	ttl      time.Duration
	now      func() time.Time
	onCreate func(*State)
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithInit runs fn on the state of every new session, e.g. to seed the master.
func WithInit(fn func(*State)) Option {
	return func(s *Store) { s.onCreate = fn }
}

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns a Store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session with a fresh State.
func (s *Store) Create() *Entry {
	state := NewState()
	if s.onCreate != nil {
		s.onCreate(state)
	}

	e := &Entry{ID: uuid.NewString(), State: state}

	s.mu.Lock()
	e.lastSeen = s.now()
	s.entries[e.ID] = e
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session", e.ID))
	return e
}

// Get returns the live session with id and marks it as seen.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.ttl {
		delete(s.entries, id)
		return nil, false
	}
	e.lastSeen = now
	return e, true
}

// GetOrCreate returns the session with id, or a new one when it is unknown
// or expired. The bool reports whether a session was created.
func (s *Store) GetOrCreate(id string) (*Entry, bool) {
	if id != "" {
		if e, ok := s.Get(id); ok {
			return e, false
		}
	}
	return s.Create(), true
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
