// Package rewrite turns conversational follow-ups into standalone search
// queries so vector retrieval does not miss context carried by pronouns or
// ellipsis ("what about its tech stack?").
package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/arlo-ai/arlo/internal/llm"
	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/session"
)

// historyWindow caps how many recent turns feed the rewrite.
const historyWindow = 4

const systemPrompt = `You rewrite the user's latest message into a standalone search query for a knowledge base.

Rules:
- Resolve pronouns and ellipsis using the conversation: substitute the subject of the immediately preceding exchange. For example, after a discussion of Project X, "tech stack?" becomes "What is the tech stack used in Project X?".
- Keep the query short and specific. Do not answer it.
- If the message is already standalone, return it unchanged.
- Reply with the query only, no quotes and no explanation.`

// Rewriter produces standalone search queries from follow-up messages.
type Rewriter struct {
	completer llm.Completer
	logger    log.Logger
}

// New creates a Rewriter.
func New(completer llm.Completer, logger log.Logger) *Rewriter {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Rewriter{completer: completer, logger: logger}
}

// Rewrite returns a standalone version of message. With no history the
// message is returned as-is without a model call. Any model failure falls
// back silently to the original message; the rewrite must never fail the
// overall request.
func (r *Rewriter) Rewrite(ctx context.Context, message string, history []session.ConversationTurn) string {
	if len(history) == 0 {
		return message
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	resp, err := r.completer.Complete(ctx, llm.Request{
		System: systemPrompt,
		Messages: []*ai.Message{
			ai.NewUserMessage(ai.NewTextPart(buildInput(message, history))),
		},
		Temperature: 0.1,
		MaxTokens:   200,
	})
	if err != nil {
		r.logger.Warn("query rewrite failed, using original message", "error", err)
		return message
	}

	rewritten := strings.TrimSpace(resp.Text)
	if rewritten == "" {
		return message
	}

	r.logger.Debug("rewrote query", "original", message, "rewritten", rewritten)
	return rewritten
}

func buildInput(message string, history []session.ConversationTurn) string {
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	b.WriteString("\nLatest message to rewrite: ")
	b.WriteString(message)
	return b.String()
}
