package bridge

import (
	"callbridge/protocol"
)

// routeText sends one text chunk to a session's call leg and mirrors it
// to the sink. An absent session or an inactive flag is a normal race
// (the call may end mid-generation) and is a logged no-op. A send
// failure flips the active flag; the stream itself is only ever closed
// by the owning session's teardown.
func (b *Bridge) routeText(sessionID, msgID, text string, partial bool) {
	sess, ok := b.registry.Get(sessionID)
	if !ok {
		b.logger.Debug("dropping text for unknown session", "session_id", sessionID)
		return
	}
	if !sess.Active() {
		b.logger.Debug("dropping text for inactive session", "session_id", sessionID)
		return
	}

	frameType := protocol.FrameTextResponse
	if partial {
		frameType = protocol.FramePartialResponse
	}
	if err := sess.Write(frameType, protocol.TextData{Text: text, Source: "agent"}); err != nil {
		if sess.Deactivate() {
			b.logger.Warn("send failed, marking session over", "session_id", sessionID, "error", err)
		}
		return
	}

	if b.sink != nil {
		if partial {
			b.sink.Publish(MessageChunk{
				ID:     msgID,
				Author: chunkAuthor("Agent", sessionID),
				Text:   text,
			})
		} else {
			b.sink.Publish(MessageChunk{
				ID:       msgID,
				Author:   chunkAuthor("Agent", sessionID),
				Finished: true,
			})
		}
	}
}

// EndCall asks the gateway to hang up one session's call leg and flips
// the session inactive. This is cooperative cancellation: the session's
// own loop observes the flag (or the remote close) and tears down.
func (b *Bridge) EndCall(sessionID, reason string) {
	sess, ok := b.registry.Get(sessionID)
	if !ok {
		b.logger.Debug("end_call for unknown session", "session_id", sessionID)
		return
	}
	if !sess.Active() {
		b.logger.Debug("end_call for inactive session", "session_id", sessionID)
		return
	}

	if err := sess.Write(protocol.FrameEndCall, protocol.EndCallData{Reason: reason, Source: "agent_system"}); err != nil {
		b.logger.Warn("end_call send failed", "session_id", sessionID, "error", err)
	}
	sess.Deactivate()
}

// Shutdown ends every active call, typically when the surrounding
// conversation has finished.
func (b *Bridge) Shutdown(reason string) {
	active := b.registry.ActiveSessions()
	if len(active) == 0 {
		b.logger.Info("no active calls to terminate")
		return
	}
	for _, sess := range active {
		b.EndCall(sess.ID, reason)
	}
	b.logger.Info("sent end_call to active sessions", "count", len(active), "reason", reason)
}
