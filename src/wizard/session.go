package wizard

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session pairs a wizard instance with its owning user for the lifetime of
// one registration flow. Access is serialized through Lock/Unlock so HTTP
// handlers never interleave operations on the same wizard.
type Session struct {
	ID      string
	UserID  uint
	EventID uint
	Wizard  *Wizard

	mu sync.Mutex

	// touched has its own lock so the sweeper can read it without waiting on
	// a handler that holds mu for a long-running operation.
	tmu     sync.Mutex
	touched time.Time
}

func (s *Session) Lock() {
	s.mu.Lock()
	s.touch()
}

func (s *Session) Unlock() {
	s.touch()
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.tmu.Lock()
	s.touched = time.Now()
	s.tmu.Unlock()
}

func (s *Session) lastTouched() time.Time {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	return s.touched
}

// Registry tracks live wizard sessions in memory and sweeps out ones that
// went quiet past the TTL. Drafts are never persisted across sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRegistry(ttl time.Duration) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go r.sweep()
	return r
}

// Create registers a new session around w and returns it.
func (r *Registry) Create(userID, eventID uint, w *Wizard) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		UserID:  userID,
		EventID: eventID,
		Wizard:  w,
		touched: time.Now(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return s
}

// Get looks up a session by id, scoped to its owner.
func (r *Registry) Get(id string, userID uint) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, false
	}
	return s, true
}

// Delete discards a session and its draft.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the sweeper goroutine.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) sweep() {
	interval := r.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.ttl)

			// the registry lock is never held while reading per-session
			// state, so handlers holding a session lock can always reach
			// the registry
			r.mu.RLock()
			live := make([]*Session, 0, len(r.sessions))
			for _, s := range r.sessions {
				live = append(live, s)
			}
			r.mu.RUnlock()

			var stale []string
			for _, s := range live {
				if s.lastTouched().Before(cutoff) {
					stale = append(stale, s.ID)
				}
			}
			if len(stale) == 0 {
				continue
			}
			r.mu.Lock()
			for _, id := range stale {
				if _, ok := r.sessions[id]; ok {
					log.Printf("Sweeping stale registration session [%s]\n", id)
					delete(r.sessions, id)
				}
			}
			r.mu.Unlock()
		}
	}
}
