package assistant

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message of the conversation, supplied by the
// caller on every request. The router keeps no chat state of its own.
type Turn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// Completer is the text-completion port behind the generative fallback:
// structured context in, prose out. The router treats the reply as opaque.
// Tests substitute a deterministic stub.
type Completer interface {
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
}

// GeminiCompleter answers through the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model}, nil
}

// Executive answers stay short and grounded: low temperature, tight output
// budget.
func (c *GeminiCompleter) Complete(ctx context.Context, system string, turns []Turn) (string, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.1),
		MaxOutputTokens:   320,
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty completion")
	}
	return text, nil
}
