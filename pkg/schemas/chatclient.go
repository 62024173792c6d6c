package schemas

import "context"

// ChatMessage is a single turn in a chat-completion request sent to a
// ChatClient.
type ChatMessage struct {
	Role    string // "system", "user", or "assistant"
	Content string
}

// ChatClient is the contract for the chat-model collaborator used for
// decontextualization, summarization, and retrieval-augmented generation.
// Concrete chat-model implementations are out of scope for the core.
type ChatClient interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}
