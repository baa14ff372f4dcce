package bridge

import (
	"sync"

	"callbridge/core"
)

// Registry maps session IDs to live sessions. It is the only place
// session lifetime is created or destroyed: the initiator inserts,
// teardown removes, and both run concurrently across sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *core.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   core.GetLogger().With(map[string]interface{}{"component": "registry"}),
	}
}

// Add registers a session under its ID.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get looks up a session by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ActiveSessions returns the sessions whose active flag is still set.
func (r *Registry) ActiveSessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// Teardown releases everything associated with a session: the stream is
// closed (already-closed errors are swallowed), the registry entry and
// the conversation history are removed, and the session context is
// cancelled. Re-invocation for an already-removed ID is a no-op, and a
// failure in any step does not skip the rest.
func (r *Registry) Teardown(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("teardown for unknown session, skipping", "session_id", id)
		return
	}

	s.Deactivate()
	if err := s.CloseStream(); err != nil {
		r.logger.Debug("stream close during teardown", "session_id", id, "error", err)
	}
	s.releaseHistory()
	s.cancel()

	r.logger.Info("session cleaned up", "session_id", id, "call_sid", s.CallSid)
}
