package interview

import (
	"context"
	"sync"
	"time"
)

// Registry maps session handles to live sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}, now: time.Now}
}

func (r *Registry) Put(s *Session) {
	s.touch(r.now())
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
}

// Get returns the session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions not seen for longer than idle and returns them.
func (r *Registry) Sweep(idle time.Duration) []*Session {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			dropped = append(dropped, s)
			delete(r.sessions, id)
		}
	}
	return dropped
}

// RunJanitor sweeps every interval until ctx is done, handing evicted sessions to onEvict.
func (r *Registry) RunJanitor(ctx context.Context, interval, idle time.Duration, onEvict func(*Session)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, s := range r.Sweep(idle) {
				if onEvict != nil {
					onEvict(s)
				}
			}
		}
	}
}

// Drain removes and returns every session, for shutdown.
func (r *Registry) Drain() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, s)
		delete(r.sessions, id)
	}
	return out
}
