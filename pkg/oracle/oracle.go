// Package oracle wraps the generative-text backends used for event
// summarization and duplicate-source confirmation.
package oracle

import "context"

// Generator is the narrow capability every backend implements. A prompt
// goes in, free text comes out; anything else is an error.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}
