package bridge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StartCall places an outbound call, opens its duplex event stream,
// registers a new session, and launches the session's event loop. The
// returned session ID is an acknowledgment only; the call's real outcome
// is asynchronous. On any failure nothing is registered and no goroutine
// is started.
func (b *Bridge) StartCall(ctx context.Context, toNumber, request string) (string, error) {
	sessionID := uuid.NewString()
	logger := b.logger.With(map[string]interface{}{"session_id": sessionID, "to_number": toNumber})

	logger.Info("initiating call")
	placed, err := b.placer.PlaceCall(ctx, toNumber, request)
	if err != nil {
		logger.Warn("call placement failed", "error", err)
		return "", err
	}

	stream, err := b.dial(ctx, placed.StreamURL)
	if err != nil {
		logger.Warn("stream connect failed", "error", err)
		return "", fmt.Errorf("%w: dial %q: %v", ErrConnectFailed, placed.StreamURL, err)
	}

	sess := newSession(sessionID, placed.CallSid, request, stream)
	b.registry.Add(sess)
	go b.runSession(sess)

	logger.Info("call session started", "call_sid", placed.CallSid)
	b.publishLine("Bridge", fmt.Sprintf("Call initiated with ID %s", shortID(sessionID)))
	return sessionID, nil
}
