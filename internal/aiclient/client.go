// Package aiclient declares the AI provider contract the engine consumes.
// No concrete provider is implemented here, only the interface node
// runners call through; deployments inject their own client.
package aiclient

import "context"

// Message is one turn in a chat-style completion request.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest is the generateTextCompletion input.
type CompletionRequest struct {
	Prompt          string
	Messages        []Message
	Model           string
	Temperature     float64
	MaxOutputTokens int
	System          string
}

// CompletionResponse is the generateTextCompletion output.
type CompletionResponse struct {
	Text  string
	Usage *Usage
}

// Usage reports token accounting, when the provider supplies it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StructuredRequest is the generateStructuredOutput input: a JSON schema
// plus whatever a CompletionRequest would otherwise need.
type StructuredRequest struct {
	CompletionRequest
	Schema map[string]any
}

// StructuredResponse carries the decoded object the provider returned.
type StructuredResponse struct {
	Object map[string]any
}

// TokenStream is the async-iterable-of-tokens shape streamTextCompletion
// returns. Next blocks until a token is available, an error occurs, or the
// stream ends (io.EOF-style: ok=false, err=nil).
type TokenStream interface {
	Next(ctx context.Context) (token string, ok bool, err error)
	Close() error
}

// Client is the full AI collaborator contract.
type Client interface {
	GenerateTextCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	StreamTextCompletion(ctx context.Context, req CompletionRequest) (TokenStream, error)
	GenerateStructuredOutput(ctx context.Context, req StructuredRequest) (StructuredResponse, error)
}
