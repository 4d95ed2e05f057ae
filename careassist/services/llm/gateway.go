// careassist/services/llm/gateway.go
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/logging"
	"careassist/careassist/utils/types"

	"go.uber.org/zap"
)

const invalidCredentialMessage = "Invalid API key"

// Gateway turns a transcript plus credential into one assistant reply.
// It holds no conversation state.
type Gateway struct {
	gen     Generator
	persona Persona
}

func NewGateway(gen Generator, persona Persona) *Gateway {
	return &Gateway{gen: gen, persona: persona}
}

// Model is the upstream model name reported to clients.
func (g *Gateway) Model() string {
	return g.persona.Model
}

// Complete sends a session transcript; the last message is the new user turn.
func (g *Gateway) Complete(ctx context.Context, transcript []types.Message, credential string) (string, error) {
	turns := make([]types.Turn, 0, len(transcript))
	for _, m := range transcript {
		turns = append(turns, types.Turn{Role: m.Role, Content: m.Content})
	}
	return g.CompleteTurns(ctx, turns, credential)
}

func (g *Gateway) CompleteTurns(ctx context.Context, turns []types.Turn, credential string) (string, error) {
	if credential == "" {
		return "", errs.MissingCredential("API key is required. Please add your Google AI Studio API key in settings.")
	}
	if len(turns) == 0 {
		return "", errs.InvalidInput("Messages array is required")
	}

	last := turns[len(turns)-1]
	req := GenerateRequest{
		Credential: credential,
		Persona:    g.persona,
		History:    turns[:len(turns)-1],
		Prompt:     last.Content,
	}

	done := logging.LogDuration(ctx, "llm_gateway_complete")
	text, err := g.gen.Generate(ctx, req)
	done()
	if err != nil {
		logging.ErrorLogger.Error("completion failed",
			zap.String("model", g.persona.Model),
			zap.Int("turns", len(turns)),
			zap.Error(err),
		)
		return "", classify(err)
	}
	return text, nil
}

func classify(err error) error {
	var se *StatusError
	if errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden) {
		return errs.InvalidCredential(invalidCredentialMessage, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "api key") {
		return errs.InvalidCredential(invalidCredentialMessage, err)
	}
	return errs.Upstream(err.Error(), err)
}
