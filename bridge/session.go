package bridge

import (
	"context"
	"sync"
	"sync/atomic"

	"callbridge/core"
	"callbridge/protocol"
)

// Session is the live state of one outbound phone call. The stream, the
// history, and the active flag are owned by this session alone; only the
// session's own goroutine and registry lookups by session ID touch them.
type Session struct {
	// ID is the registry key, generated at call initiation.
	ID string
	// CallSid is the provider-assigned call leg identifier, kept for
	// logging and correlation only.
	CallSid string
	// OriginalRequest is the immutable reason the call was placed.
	OriginalRequest string

	ctx    context.Context
	cancel context.CancelFunc

	stream    Stream
	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	history []core.Turn

	active atomic.Bool
}

func newSession(id, callSid, request string, stream Stream) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:              id,
		CallSid:         callSid,
		OriginalRequest: request,
		ctx:             ctx,
		cancel:          cancel,
		stream:          stream,
	}
	s.active.Store(true)
	return s
}

// Active reports whether the call is still considered live.
func (s *Session) Active() bool {
	return s.active.Load()
}

// Deactivate flips the active flag false. It returns true only for the
// single caller that performed the transition, so end-of-call work runs
// at most once no matter how many actors observe the call ending.
func (s *Session) Deactivate() bool {
	return s.active.CompareAndSwap(true, false)
}

// AppendTurn records one conversation turn. History is append-only for
// the call's lifetime and released at teardown.
func (s *Session) AppendTurn(role core.Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, core.Turn{Role: role, Text: text})
}

// History returns a snapshot copy of the conversation so far.
func (s *Session) History() []core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Turn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) releaseHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Write marshals and sends one frame over the session's stream.
func (s *Session) Write(frameType protocol.FrameType, payload interface{}) error {
	data, err := protocol.Marshal(frameType, payload)
	if err != nil {
		return err
	}
	return s.stream.WriteMessage(data)
}

// CloseStream closes the duplex stream exactly once. Repeat calls return
// the first result.
func (s *Session) CloseStream() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.stream.Close()
	})
	return s.closeErr
}
