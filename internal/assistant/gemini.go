package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter реализует Completer через Gemini API
type GeminiCompleter struct {
	client  *genai.Client
	modelID string
}

func NewGeminiCompleter(ctx context.Context, apiKey, modelID string) (*GeminiCompleter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("assistant: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("assistant: create gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, modelID: modelID}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, system string, history []Message, text string) (string, error) {
	model := c.client.GenerativeModel(c.modelID)
	model.SetTemperature(0.7)
	if strings.TrimSpace(system) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := model.StartChat()
	for _, msg := range history {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  string(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("assistant: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("assistant: gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("assistant: gemini returned empty content")
	}

	var out strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			out.WriteString(string(t))
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func (c *GeminiCompleter) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
