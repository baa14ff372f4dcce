package protocol

import "encoding/json"

// FrameType enumerates all frame types carried on a call's duplex stream.
type FrameType string

const (
	// Gateway -> agent
	FrameSpeechSegment FrameType = "speech_segment"
	FrameCallStarted   FrameType = "call_started"
	FrameCallStatus    FrameType = "call_status"
	FrameCallEnded     FrameType = "call_ended"

	// Agent -> gateway
	FramePartialResponse FrameType = "partial_response"
	FrameTextResponse    FrameType = "text_response"
	FrameEndCall         FrameType = "end_call"
)

// Frame is the outer JSON wrapper for all stream frames.
type Frame struct {
	Type FrameType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// --- Gateway -> agent payloads ---

// SpeechSegmentData carries one chunk of caller audio, base64 encoded.
type SpeechSegmentData struct {
	Payload string `json:"payload"`
	Codec   string `json:"codec,omitempty"` // "ulaw" unless the gateway says otherwise
}

// CallStartedData is sent once the media stream is up.
type CallStartedData struct {
	StreamSid string `json:"stream_sid"`
}

// CallStatusData carries a provider status update for the call leg.
type CallStatusData struct {
	Status string `json:"status"`
}

// CallEndedData carries the final outcome when the far end disconnects.
type CallEndedData struct {
	Eligibility string `json:"eligibility,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// --- Agent -> gateway payloads ---

// TextData is the body of partial_response and text_response frames.
type TextData struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// EndCallData asks the gateway to hang up the call leg gracefully.
type EndCallData struct {
	Reason string `json:"reason,omitempty"`
	Source string `json:"source,omitempty"`
}

// TerminalStatus reports whether a call_status value means the call leg
// is over. Non-terminal statuses (ringing, in-progress) are informational.
func TerminalStatus(status string) bool {
	switch status {
	case "completed", "failed", "busy", "no-answer", "canceled":
		return true
	}
	return false
}
