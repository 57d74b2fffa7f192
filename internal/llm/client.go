package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the chat prompt sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage carries the token accounting reported by the model.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Request is a single chat-completion call.
type Request struct {
	Messages    []Message
	Temperature float32
	// JSONOnly forces the model to emit a single JSON object.
	JSONOnly bool
}

// Completion is the model's reply plus its token usage.
type Completion struct {
	Content string
	Usage   Usage
}

// Client is the chat-completion contract the conversation core depends on.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// Embedder produces embedding vectors for the retrieval index.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
