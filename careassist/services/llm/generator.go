// careassist/services/llm/generator.go
package llm

import (
	"context"
	"fmt"

	"careassist/careassist/config"
	"careassist/careassist/utils/types"
)

// GenerateRequest is one upstream call: the history in order, then the
// new user turn.
type GenerateRequest struct {
	Credential string
	Persona    Persona
	History    []types.Turn
	Prompt     string
}

// Generator talks to one upstream text-generation service.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// StatusError carries the HTTP status an upstream answered with.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewGenerator picks the upstream from configuration.
func NewGenerator(cfg config.Config) (Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini, "":
		return NewGeminiGenerator(cfg.LLMBaseURL), nil
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg.LLMBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLMProvider)
	}
}
