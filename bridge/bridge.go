// Package bridge runs outbound phone call sessions: it places a call,
// owns the call's duplex event stream, turns caller speech into text,
// generates paced replies, and tears every session down deterministically.
package bridge

import (
	"context"
	"errors"
	"strings"

	"callbridge/core"
	"callbridge/placement"

	"github.com/google/uuid"
)

// ErrConnectFailed is returned when the duplex stream for a placed call
// cannot be opened. No session is registered in that case.
var ErrConnectFailed = errors.New("stream connect failed")

// CallPlacer places an outbound call and returns its stream endpoint.
type CallPlacer interface {
	PlaceCall(ctx context.Context, toNumber, information string) (*placement.PlacedCall, error)
}

// Transcriber converts one audio segment into text. Empty text with a
// nil error means no recognized speech.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, model string) (string, error)
}

// Generator wraps the text-generation capability in bulk and streaming modes.
type Generator interface {
	Complete(ctx context.Context, turns []core.Turn) (core.Reply, error)
	CompleteStream(ctx context.Context, turns []core.Turn) (<-chan core.StreamEvent, error)
}

// MessageChunk is one ordered piece of a logical message shown on the
// observing interface. The consumer reassembles chunks by ID.
type MessageChunk struct {
	ID       string `json:"message_id"`
	Author   string `json:"author"`
	Text     string `json:"text"`
	Finished bool   `json:"finished"`
}

// Sink receives ordered message chunks for display. Implementations must
// not block for long; the bridge calls Publish from session goroutines.
type Sink interface {
	Publish(chunk MessageChunk)
}

// Config controls bridge behaviour across all sessions.
type Config struct {
	// TranscriptionModel is the selector passed to the transcriber.
	TranscriptionModel string
	// HistoryWindow is how many prior turns are included in the
	// generation context for each reply.
	HistoryWindow int
}

// DefaultConfig returns the Config used for call sessions.
func DefaultConfig() Config {
	return Config{
		TranscriptionModel: "whisper",
		HistoryWindow:      5,
	}
}

// Bridge orchestrates all live call sessions. One goroutine runs per
// session; the registry is the only shared mutable state.
type Bridge struct {
	config   Config
	placer   CallPlacer
	stt      Transcriber
	llm      Generator
	sink     Sink
	registry *Registry
	logger   *core.Logger
	dial     DialFunc
}

// New creates a Bridge. sink may be nil, in which case chunks are dropped.
func New(config Config, placer CallPlacer, transcriber Transcriber, generator Generator, sink Sink) *Bridge {
	if config.HistoryWindow <= 0 {
		config.HistoryWindow = DefaultConfig().HistoryWindow
	}
	if config.TranscriptionModel == "" {
		config.TranscriptionModel = DefaultConfig().TranscriptionModel
	}
	return &Bridge{
		config:   config,
		placer:   placer,
		stt:      transcriber,
		llm:      generator,
		sink:     sink,
		registry: NewRegistry(),
		logger:   core.GetLogger().With(map[string]interface{}{"component": "bridge"}),
		dial:     DialStream,
	}
}

// Registry exposes the session registry, mainly for inspection in tests
// and status reporting.
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// SetDialer overrides how duplex streams are opened.
func (b *Bridge) SetDialer(dial DialFunc) {
	b.dial = dial
}

// publishLine sends a single self-contained message to the sink.
func (b *Bridge) publishLine(author, text string) {
	if b.sink == nil {
		return
	}
	b.sink.Publish(MessageChunk{
		ID:       uuid.NewString(),
		Author:   author,
		Text:     text,
		Finished: true,
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func chunkAuthor(kind, sessionID string) string {
	return kind + " (" + shortID(sessionID) + ")"
}

// replyPrefixes are labels the model sometimes prepends to a reply even
// when told not to. They are stripped before the reply is routed.
var replyPrefixes = []string{
	"Assistant:",
	"Agent:",
	"ProxyAgent:",
	"Proxy Agent:",
}

func cleanReply(reply string) string {
	cleaned := strings.TrimSpace(reply)
	for _, prefix := range replyPrefixes {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
			break
		}
	}
	return cleaned
}
