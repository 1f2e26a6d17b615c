// Package brain extracts scored business hypotheses from article text
// through an LLM provider.
//
// Provider output is untrusted: every field of every hypothesis is
// validated and coerced before it reaches the pipeline, and any parse
// failure degrades to zero hypotheses rather than an error.
package brain

import "context"

// Provider is the interface for AI providers
type Provider interface {
	// Name returns the provider name (e.g., "openai")
	Name() string

	// Available returns true if the provider is configured and ready
	Available() bool

	// Generate sends a prompt and returns the response
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a prompt request to an AI provider
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response is the AI provider's response
type Response struct {
	Content     string
	Model       string
	RawResponse string // The raw API response body for logging/debugging
}
