// careassist/services/llm/openai.go
package llm

import (
	"context"
	"errors"
	"fmt"

	"careassist/careassist/utils/types"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator serves any OpenAI-compatible chat endpoint (OpenAI, Groq,
// OpenRouter) selected through the base URL.
type OpenAIGenerator struct {
	baseURL string
}

func NewOpenAIGenerator(baseURL string) *OpenAIGenerator {
	return &OpenAIGenerator{baseURL: baseURL}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	config := openai.DefaultConfig(req.Credential)
	if g.baseURL != "" {
		config.BaseURL = g.baseURL
	}
	client := openai.NewClientWithConfig(config)

	p := req.Persona
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.SystemPrompt})
	for _, t := range req.History {
		role := openai.ChatMessageRoleUser
		if t.Role == types.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.Model,
		Messages:    msgs,
		Temperature: p.Temperature,
		TopP:        p.TopP,
		MaxTokens:   int(p.MaxOutputTokens),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Status: apiErr.HTTPStatusCode, Err: err}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &StatusError{Status: reqErr.HTTPStatusCode, Err: err}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
