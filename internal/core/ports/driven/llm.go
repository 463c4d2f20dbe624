package driven

import "context"

// TextGenerator is the text generation capability used identically for
// drafting, reviewing, and refining.
//
// Implementations may include:
//   - OpenAI and OpenAI-compatible gateways
//   - Anthropic (Claude)
//   - Ollama (local models)
type TextGenerator interface {
	// Complete returns the generated text for a system and a user instruction.
	Complete(ctx context.Context, system, user string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to verify connectivity.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
