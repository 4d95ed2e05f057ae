// careassist/controllers/completion.go
package controllers

import (
	"context"
	"encoding/json"
	"fmt"

	"careassist/careassist/services/llm"
	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/types"
)

// CompletionController is the stateless boundary: a transcript and a key in,
// one reply out. Nothing is stored.
type CompletionController struct {
	gateway *llm.Gateway
}

func NewCompletionController(gateway *llm.Gateway) *CompletionController {
	return &CompletionController{gateway: gateway}
}

func (c *CompletionController) Complete(ctx context.Context, req types.CompletionRequest) (*types.CompletionResponse, error) {
	if req.APIKey == "" {
		return nil, errs.MissingCredential("API key is required. Please add your Google AI Studio API key in settings.")
	}
	turns, err := parseTurns(req.Messages)
	if err != nil {
		return nil, err
	}
	text, err := c.gateway.CompleteTurns(ctx, turns, req.APIKey)
	if err != nil {
		return nil, err
	}
	return &types.CompletionResponse{Message: text, Model: c.gateway.Model()}, nil
}

// ErrorMessage is the client-facing text for a completion failure.
func (c *CompletionController) ErrorMessage(err error) string {
	switch errs.KindOf(err) {
	case errs.KindMissingCredential, errs.KindInvalidInput:
		return errs.MessageOf(err)
	case errs.KindInvalidCredential:
		return "Invalid API key. Please check your Google AI Studio API key in settings."
	default:
		return "Failed to generate response: " + errs.MessageOf(err)
	}
}

func parseTurns(raw json.RawMessage) ([]types.Turn, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errs.InvalidInput("Messages array is required")
	}
	var turns []types.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, errs.InvalidInput("Messages array is required")
	}
	if len(turns) == 0 {
		return nil, errs.InvalidInput("Messages array is required")
	}
	for i, t := range turns {
		if !t.Role.Valid() {
			return nil, errs.InvalidInput(fmt.Sprintf("message %d: role must be user or assistant", i))
		}
	}
	return turns, nil
}
