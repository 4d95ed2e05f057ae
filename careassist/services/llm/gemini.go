// careassist/services/llm/gemini.go
package llm

import (
	"context"
	"errors"
	"fmt"

	"careassist/careassist/utils/types"

	"google.golang.org/genai"
)

// GeminiGenerator calls the Gemini API with the caller's API key. The key
// arrives per request, so a client is built per call.
type GeminiGenerator struct {
	baseURL string
}

func NewGeminiGenerator(baseURL string) *GeminiGenerator {
	return &GeminiGenerator{baseURL: baseURL}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	cc := &genai.ClientConfig{
		APIKey:  req.Credential,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", fmt.Errorf("creating gemini client: %w", err)
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		var role genai.Role = genai.RoleUser
		if t.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	p := req.Persona
	temp := p.Temperature
	topP := p.TopP
	topK := p.TopK
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.SystemPrompt, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		TopK:              &topK,
		MaxOutputTokens:   p.MaxOutputTokens,
	}

	res, err := client.Models.GenerateContent(ctx, p.Model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Status: apiErr.Code, Err: err}
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) {
			return "", &StatusError{Status: apiErrPtr.Code, Err: err}
		}
		return "", err
	}
	return res.Text(), nil
}
