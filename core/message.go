package core

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleCaller Role = "caller"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// Turn is a single entry in a call's conversation history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ReplyKind discriminates the two shapes a generation capability can
// return: plain text or a batch of tool invocations.
type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyToolCalls
)

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	Name      string
	Arguments string
}

// Reply is the tagged result of a generation call, resolved once at the
// adapter boundary so callers never re-inspect the raw provider shape.
type Reply struct {
	Kind      ReplyKind
	Text      string
	ToolCalls []ToolCall
}

// IsText reports whether the reply carries plain text content.
func (r Reply) IsText() bool {
	return r.Kind == ReplyText
}

// StreamEvent is one item of a streaming generation call: a text chunk,
// a terminal error, or the completion marker. Exactly one terminal event
// (Done or Err) is delivered before the channel closes.
type StreamEvent struct {
	Chunk string
	Err   error
	Done  bool
}
