package protocol

import (
	"testing"
)

func TestMarshalUnmarshalFrame(t *testing.T) {
	data, err := Marshal(FrameTextResponse, TextData{Text: "hello", Source: "agent"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	frameType, raw, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if frameType != FrameTextResponse {
		t.Errorf("frameType = %q, want %q", frameType, FrameTextResponse)
	}

	payload, err := UnmarshalData[TextData](raw)
	if err != nil {
		t.Fatalf("UnmarshalData: %v", err)
	}
	if payload.Text != "hello" || payload.Source != "agent" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestUnmarshalRejectsMissingType(t *testing.T) {
	if _, _, err := Unmarshal([]byte(`{"data":{}}`)); err == nil {
		t.Error("expected error for frame without type")
	}
	if _, _, err := Unmarshal([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func TestUnmarshalDataEmptyPayload(t *testing.T) {
	payload, err := UnmarshalData[CallEndedData](nil)
	if err != nil {
		t.Fatalf("UnmarshalData(nil): %v", err)
	}
	if payload.Eligibility != "" {
		t.Errorf("payload = %+v, want zero value", payload)
	}
}

func TestUnmarshalDataBadPayload(t *testing.T) {
	if _, err := UnmarshalData[CallEndedData]([]byte(`[1,2]`)); err == nil {
		t.Error("expected error for payload of wrong shape")
	}
}

func TestTerminalStatus(t *testing.T) {
	for _, status := range []string{"completed", "failed", "busy", "no-answer", "canceled"} {
		if !TerminalStatus(status) {
			t.Errorf("TerminalStatus(%q) = false, want true", status)
		}
	}
	for _, status := range []string{"ringing", "in-progress", "queued", ""} {
		if TerminalStatus(status) {
			t.Errorf("TerminalStatus(%q) = true, want false", status)
		}
	}
}
