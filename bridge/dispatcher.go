package bridge

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"callbridge/core"
	"callbridge/protocol"
	"callbridge/textseg"
	"callbridge/utils/audio"

	"github.com/google/uuid"
)

// runSession is the per-session event loop. Frames are processed
// strictly in arrival order; per-segment failures drop only that
// segment. Teardown runs on every exit path exactly once.
func (b *Bridge) runSession(sess *Session) {
	logger := b.logger.With(map[string]interface{}{"session_id": sess.ID, "call_sid": sess.CallSid})
	defer b.registry.Teardown(sess.ID)

	for sess.Active() {
		data, err := sess.stream.ReadMessage()
		if err != nil {
			if sess.Deactivate() {
				logger.Warn("stream closed", "error", err)
				b.publishLine(chunkAuthor("Call", sess.ID), "Call disconnected")
			}
			return
		}

		frameType, raw, err := protocol.Unmarshal(data)
		if err != nil {
			logger.Warn("invalid frame, skipping", "error", err)
			continue
		}

		switch frameType {
		case protocol.FrameSpeechSegment:
			if err := b.handleSpeechSegment(sess, raw); err != nil {
				logger.Warn("speech segment dropped", "error", err)
			}

		case protocol.FrameCallStarted:
			started, err := protocol.UnmarshalData[protocol.CallStartedData](raw)
			if err != nil {
				logger.Warn("invalid call_started payload", "error", err)
				continue
			}
			sid := started.StreamSid
			if sid == "" {
				sid = "unknown"
			}
			b.publishLine(chunkAuthor("Call", sess.ID), "Call started - Stream SID: "+sid)

		case protocol.FrameCallStatus:
			status, err := protocol.UnmarshalData[protocol.CallStatusData](raw)
			if err != nil {
				logger.Warn("invalid call_status payload", "error", err)
				continue
			}
			if protocol.TerminalStatus(status.Status) {
				b.finishCall(sess, "Call ended - Status: "+status.Status)
			} else {
				logger.Info("call status", "status", status.Status)
			}

		case protocol.FrameCallEnded:
			ended, err := protocol.UnmarshalData[protocol.CallEndedData](raw)
			if err != nil {
				logger.Warn("invalid call_ended payload", "error", err)
				ended = protocol.CallEndedData{}
			}
			eligibility := ended.Eligibility
			if eligibility == "" {
				eligibility = "unknown"
			}
			b.finishCall(sess, "Call ended - Eligibility: "+eligibility)

		default:
			logger.Debug("unhandled frame type", "type", string(frameType))
		}
	}
}

// finishCall records the call outcome as a system turn, flips the active
// flag, and triggers the summarizer. Only the first observer of the
// transition does any of this.
func (b *Bridge) finishCall(sess *Session, outcome string) {
	if !sess.Deactivate() {
		return
	}
	sess.AppendTurn(core.RoleSystem, outcome)
	b.publishLine(chunkAuthor("Call", sess.ID), outcome)
	b.summarize(sess)
}

// handleSpeechSegment runs the transcribe -> generate -> chunk -> route
// pipeline for one inbound audio segment.
func (b *Bridge) handleSpeechSegment(sess *Session, raw json.RawMessage) error {
	segment, err := protocol.UnmarshalData[protocol.SpeechSegmentData](raw)
	if err != nil {
		return err
	}
	if segment.Payload == "" {
		// A speech_segment without audio is ignored, not an error.
		return nil
	}

	encoded, err := base64.StdEncoding.DecodeString(segment.Payload)
	if err != nil {
		return fmt.Errorf("decode audio payload: %w", err)
	}
	wav, err := prepareAudio(encoded, segment.Codec)
	if err != nil {
		return err
	}

	transcript, err := b.stt.Transcribe(sess.ctx, wav, b.config.TranscriptionModel)
	if err != nil {
		return err
	}
	if transcript == "" {
		// Nothing recognized: no generation call, no outbound send.
		return nil
	}

	sess.AppendTurn(core.RoleCaller, transcript)
	b.publishLine(chunkAuthor("Caller", sess.ID), transcript)

	return b.respond(sess, transcript)
}

// prepareAudio converts a raw segment into the WAV blob the transcriber
// expects. Telephone legs carry u-law unless the gateway says otherwise.
func prepareAudio(segment []byte, codec string) ([]byte, error) {
	switch codec {
	case "", "ulaw":
		return audio.ULawToWav(segment)
	case "wav":
		return segment, nil
	default:
		return nil, fmt.Errorf("unsupported audio codec %q", codec)
	}
}

// respond streams a generated reply, routing each completed sentence to
// the call leg as soon as it is observed, then routes the full cleaned
// reply as the final response. On a generation failure the partial reply
// is discarded: nothing is appended to history and no final frame is sent.
func (b *Bridge) respond(sess *Session, transcript string) error {
	events, err := b.llm.CompleteStream(sess.ctx, b.promptTurns(sess, transcript))
	if err != nil {
		return err
	}

	msgID := uuid.NewString()
	splitter := textseg.NewSplitter()
	for ev := range events {
		if ev.Err != nil {
			return ev.Err
		}
		if ev.Done {
			break
		}
		if sentence, ok := splitter.Push(ev.Chunk); ok {
			b.routeText(sess.ID, msgID, sentence, true)
		}
	}
	if tail, ok := splitter.Flush(); ok {
		b.routeText(sess.ID, msgID, tail, true)
	}

	reply := cleanReply(splitter.Text())
	if reply == "" {
		return nil
	}
	sess.AppendTurn(core.RoleAgent, reply)
	b.routeText(sess.ID, msgID, reply, false)
	return nil
}

// promptTurns builds the generation context from the session's request,
// the recent history window, and the transcript just heard.
func (b *Bridge) promptTurns(sess *Session, transcript string) []core.Turn {
	prompt := "Context: You are handling a phone call about: " + sess.OriginalRequest + "\n\n"

	history := sess.History()
	if len(history) > b.config.HistoryWindow {
		history = history[len(history)-b.config.HistoryWindow:]
	}
	if len(history) > 0 {
		prompt += "Previous conversation:\n"
		for _, turn := range history {
			prompt += string(turn.Role) + ": " + turn.Text + "\n"
		}
		prompt += "\n"
	}

	prompt += "Caller just said: " + transcript + "\n"
	prompt += "Please provide a helpful response:"

	return []core.Turn{{Role: core.RoleCaller, Text: prompt}}
}
