package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/techinnovate/receptionist/backend/internal/model/conversation"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	defaultMaxSessions  = 1000
	defaultHistoryLimit = 40
)

// StoreConfig controls session retention and history growth.
type StoreConfig struct {
	// Preamble seeds every new session's history as a system message,
	// exactly once per session.
	Preamble string
	// MaxSessions caps the total number of live sessions. When the cap
	// is reached the least recently used session is evicted.
	MaxSessions int
	// HistoryLimit bounds the number of messages kept per session after
	// the preamble.
	HistoryLimit int
}

type entry struct {
	session    conversation.Session
	history    []*schema.Message
	lastUsedAt time.Time
}

// Store owns all conversation sessions for the process lifetime.
// Creation is atomic under one mutex so concurrent first-use of the
// same identifier seeds the persona preamble exactly once.
type Store struct {
	mu      sync.Mutex
	cfg     StoreConfig
	entries map[string]*entry
}

// NewStore bootstraps the in-memory session store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &Store{
		cfg:     cfg,
		entries: make(map[string]*entry),
	}
}

// GetOrCreate returns the session for id, creating it when absent. The
// second return value reports whether a new session was created.
func (s *Store) GetOrCreate(id string) (conversation.Session, bool) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.lastUsedAt = now
		return e.session, false
	}

	if len(s.entries) >= s.cfg.MaxSessions {
		s.evictOldestLocked()
	}

	e := &entry{
		session:    conversation.Session{ID: id, CreatedAt: now},
		history:    []*schema.Message{schema.SystemMessage(s.cfg.Preamble)},
		lastUsedAt: now,
	}
	s.entries[id] = e
	return e.session, true
}

// History returns a snapshot of the session's message history.
func (s *Store) History(id string) ([]*schema.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.lastUsedAt = time.Now().UTC()
	copied := make([]*schema.Message, len(e.history))
	copy(copied, e.history)
	return copied, nil
}

// AppendExchange records one completed user/assistant exchange and trims
// the history to the configured window, always keeping the preamble.
func (s *Store) AppendExchange(id string, user, assistant *schema.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ErrSessionNotFound
	}

	e.lastUsedAt = time.Now().UTC()
	e.history = append(e.history, user, assistant)

	if excess := len(e.history) - 1 - s.cfg.HistoryLimit; excess > 0 {
		trimmed := make([]*schema.Message, 0, 1+s.cfg.HistoryLimit)
		trimmed = append(trimmed, e.history[0])
		trimmed = append(trimmed, e.history[1+excess:]...)
		e.history = trimmed
	}
	return nil
}

// Sweep removes sessions created more than maxAge ago and returns how
// many were removed. Safe to call repeatedly; with no expired sessions
// it is a no-op.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if e.session.CreatedAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.lastUsedAt.Before(oldest) {
			oldestID = id
			oldest = e.lastUsedAt
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
	}
}
