package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"callbridge/core"

	openai "github.com/sashabaranov/go-openai"
)

// ErrTranscriptionFailed is returned when the speech-to-text capability
// reports an error. Success with no recognized speech is not an error.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Config holds the configuration for the Whisper transcription service.
type Config struct {
	APIKey string
	Model  string
}

// DefaultConfig returns a Config using the standard Whisper model.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey: apiKey,
		Model:  openai.Whisper1,
	}
}

// WhisperService transcribes call audio segments using OpenAI Whisper.
type WhisperService struct {
	client *openai.Client
	config Config
	logger *core.Logger
}

// NewWhisperService creates a new transcription service.
func NewWhisperService(config Config) *WhisperService {
	return &WhisperService{
		client: openai.NewClient(config.APIKey),
		config: config,
		logger: core.GetLogger().With(map[string]interface{}{"component": "stt"}),
	}
}

// Transcribe converts one WAV audio segment into text with a single
// capability call. An empty string with a nil error means the segment
// contained no recognized speech; callers treat that as nothing to do.
func (s *WhisperService) Transcribe(ctx context.Context, audio []byte, model string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.resolveModel(model),
		Reader:   bytes.NewReader(audio),
		FilePath: "segment.wav",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// resolveModel maps the caller's model selector onto a provider model name.
func (s *WhisperService) resolveModel(model string) string {
	switch model {
	case "", "whisper":
		return s.config.Model
	default:
		return model
	}
}
