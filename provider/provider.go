// Package provider defines the text-completion interface the content
// generator depends on. Implementations wrap a specific LLM vendor SDK;
// the rest of the system only sees prompts in and text out.
package provider

import "context"

// CompletionRequest is a single prompt for the model. Temperature controls
// sampling variance; output is explicitly non-deterministic across calls.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int64
}

// Completer produces a text completion for a prompt. Implementations must
// honor ctx cancellation and return an error rather than partial output.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
