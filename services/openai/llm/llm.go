package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"callbridge/core"

	openai "github.com/sashabaranov/go-openai"
)

// ErrGenerationFailed is returned when the generation capability reports
// an error before or during a completion.
var ErrGenerationFailed = errors.New("generation failed")

// Config holds the configuration for the OpenAI generation service.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// DefaultConfig returns a Config with the defaults used for call sessions.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		Model:       openai.GPT4oMini,
		MaxTokens:   512,
		Temperature: 0.7,
	}
}

// Service implements bulk and streaming text generation using OpenAI.
type Service struct {
	client *openai.Client
	config Config
	logger *core.Logger
}

// New creates a new generation service.
func New(config Config) *Service {
	return &Service{
		client: openai.NewClient(config.APIKey),
		config: config,
		logger: core.GetLogger().With(map[string]interface{}{"component": "llm"}),
	}
}

// Complete submits the full context and returns one complete reply.
// The provider shape (plain content vs. tool calls) is resolved here,
// once, into a tagged core.Reply.
func (s *Service) Complete(ctx context.Context, turns []core.Turn) (core.Reply, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    convertTurns(turns),
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return core.Reply{}, fmt.Errorf("%w: create completion: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return core.Reply{}, fmt.Errorf("%w: completion returned no choices", ErrGenerationFailed)
	}
	return resolveReply(resp.Choices[0].Message), nil
}

// CompleteStream submits the full context and returns a channel of
// incremental events. A transport failure before any event is seen is
// returned directly; afterwards the channel carries chunks until exactly
// one terminal event (Done or Err) and is then closed. The caller must
// drain the channel to the terminal event; on Err any partial text must
// be discarded.
func (s *Service) CompleteStream(ctx context.Context, turns []core.Turn) (<-chan core.StreamEvent, error) {
	stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    convertTurns(turns),
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create completion stream: %v", ErrGenerationFailed, err)
	}

	out := make(chan core.StreamEvent)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					out <- core.StreamEvent{Done: true}
				} else {
					out <- core.StreamEvent{Err: fmt.Errorf("%w: recv: %v", ErrGenerationFailed, err)}
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				out <- core.StreamEvent{Chunk: delta}
			}
		}
	}()
	return out, nil
}

func convertTurns(turns []core.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    convertRole(turn.Role),
			Content: turn.Text,
		})
	}
	return messages
}

func convertRole(role core.Role) string {
	switch role {
	case core.RoleCaller:
		return openai.ChatMessageRoleUser
	case core.RoleAgent:
		return openai.ChatMessageRoleAssistant
	case core.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

func resolveReply(msg openai.ChatCompletionMessage) core.Reply {
	if len(msg.ToolCalls) > 0 {
		calls := make([]core.ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			calls = append(calls, core.ToolCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		return core.Reply{Kind: core.ReplyToolCalls, ToolCalls: calls}
	}
	return core.Reply{Kind: core.ReplyText, Text: msg.Content}
}
