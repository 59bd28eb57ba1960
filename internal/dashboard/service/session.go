package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corp-qr-hub/internal/view"
	"github.com/corp-qr-hub/internal/wizard"
)

// Session is the dashboard state of one browser: the current screen, the
// wizard while one is open, the list filter and pending flash messages.
// Callers hold Lock for the whole request.
type Session struct {
	ID string

	mu       sync.Mutex
	Router   *view.Router
	Wizard   *wizard.Controller
	Query    string
	flash    []string
	lastSeen time.Time
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(msg string) {
	s.flash = append(s.flash, msg)
}

// PopFlash returns and clears the queued messages.
func (s *Session) PopFlash() []string {
	msgs := s.flash
	s.flash = nil
	return msgs
}

// SessionRegistry keeps dashboard sessions in memory. Sessions idle for
// longer than the TTL are dropped by Sweep.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Acquire returns the live session with the given id, or a new one on the
// list screen. created reports whether the caller must issue a new cookie.
func (r *SessionRegistry) Acquire(id string) (sess *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.sessions[id]; ok {
		if now.Sub(s.lastSeen) <= r.ttl {
			s.lastSeen = now
			return s, false
		}
		delete(r.sessions, id)
	}

	s := &Session{
		ID:       uuid.New().String(),
		Router:   view.NewRouter(),
		lastSeen: now,
	}
	r.sessions[s.ID] = s
	return s, true
}

// Sweep drops expired sessions and returns how many were removed.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run sweeps every interval until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
