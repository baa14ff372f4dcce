package bridge

import (
	"callbridge/core"

	"github.com/bytedance/sonic"
)

const summaryInstruction = "Please provide a concise summary of this phone call conversation, including key points and outcomes:"

// summarize asks the generator for a bulk summary of the conversation
// history as it stood when the call ended. A summarization failure is
// reported to the sink and never prevents teardown.
func (b *Bridge) summarize(sess *Session) {
	author := chunkAuthor("Call Summary", sess.ID)

	history := sess.History()
	if len(history) == 0 {
		b.publishLine(author, "No conversation data available")
		return
	}

	serialized, err := sonic.MarshalIndent(history, "", "  ")
	if err != nil {
		b.logger.Warn("serialize history for summary", "session_id", sess.ID, "error", err)
		b.publishLine(author, "Summary unavailable")
		return
	}

	reply, err := b.llm.Complete(sess.ctx, []core.Turn{{
		Role: core.RoleCaller,
		Text: summaryInstruction + "\n\n" + string(serialized),
	}})
	if err != nil || !reply.IsText() || reply.Text == "" {
		if err != nil {
			b.logger.Warn("summary generation failed", "session_id", sess.ID, "error", err)
		}
		b.publishLine(author, "Summary unavailable")
		return
	}

	b.publishLine(author, "CALL SUMMARY\n\n"+reply.Text)
}
