package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Marshal creates a JSON-encoded Frame from a frame type and payload.
func Marshal(frameType FrameType, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := sonic.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("protocol: marshal payload for %q: %w", frameType, err)
		}
		raw = b
	}
	return sonic.Marshal(Frame{
		Type: frameType,
		Data: raw,
	})
}

// Unmarshal parses a JSON-encoded Frame, returning the frame type and raw payload.
func Unmarshal(data []byte) (FrameType, json.RawMessage, error) {
	var f Frame
	if err := sonic.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("protocol: unmarshal frame: %w", err)
	}
	if f.Type == "" {
		return "", nil, fmt.Errorf("protocol: frame missing type field")
	}
	return f.Type, f.Data, nil
}

// UnmarshalData decodes a raw JSON payload into a typed struct.
func UnmarshalData[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("protocol: unmarshal data: %w", err)
	}
	return v, nil
}
