package app

import (
	"context"
	"sync"
	"time"

	"desathor/internal/core"
	"desathor/internal/desadv"

	"github.com/google/uuid"
)

// Run is one completed comparison kept in a session's history.
type Run struct {
	ID            string
	CreatedAt     time.Time
	HideUnmatched bool
	OrderFiles    []string
	DeliveryFiles []string
	Result        *core.ComparisonResult
}

// AppState is everything one logged-in session owns. It is created at login,
// cleared by Reset and dropped at logout or expiry.
type AppState struct {
	mu        sync.Mutex
	user      core.User
	createdAt time.Time
	lastSeen  time.Time
	runs      []*Run
	desadv    *desadv.Report
}

func (s *AppState) appendRun(r *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, r)
}

func (s *AppState) history() []*Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Run, len(s.runs))
	copy(out, s.runs)
	return out
}

func (s *AppState) run(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *AppState) latest() *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return nil
	}
	return s.runs[len(s.runs)-1]
}

func (s *AppState) clearRuns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = nil
}

func (s *AppState) setDESADV(rep *desadv.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desadv = rep
}

func (s *AppState) lastDESADV() *desadv.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desadv
}

// Reset forgets runs and DESADV results but keeps the session logged in.
func (s *AppState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = nil
	s.desadv = nil
}

// SessionStore is a thread-safe in-memory session map with TTL expiry.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*AppState
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl of inactivity.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{ttl: ttl, sessions: make(map[string]*AppState), now: time.Now}
}

// Create opens a fresh session for user and returns its ID.
func (s *SessionStore) Create(user core.User) (string, *AppState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := s.now()
	st := &AppState{user: user, createdAt: now, lastSeen: now}
	s.sessions[id] = st
	return id, st
}

// Get returns a live session and refreshes its expiry.
func (s *SessionStore) Get(id string) (*AppState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(st.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	st.lastSeen = now
	return st, true
}

// Delete drops a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Purge evicts expired sessions.
func (s *SessionStore) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, st := range s.sessions {
		if now.Sub(st.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// StartPurge evicts expired sessions every interval until ctx is done.
func (s *SessionStore) StartPurge(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Purge()
			}
		}
	}()
}
