package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	domai "github.com/bryanwahyu/repo-audit/internal/domain/ai"
	"github.com/bryanwahyu/repo-audit/internal/infra/ai/prompt"
)

const defaultModel = "gemini-2.5-flash"

// generator is the slice of the genai SDK the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models generator
	Model  string
}

// NewClient builds a Gemini API client. The key is passed explicitly so it
// never has to live in source or in the process-wide environment.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newWithGenerator(cli.Models, model), nil
}

func newWithGenerator(g generator, model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{models: g, Model: model}
}

func (c *Client) Name() string { return "Gemini" }

func (c *Client) Generate(ctx context.Context, text string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.Model,
		genai.Text(text),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.GetSystemPrompt(), genai.RoleUser),
		},
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", domai.ErrQuotaExceeded, apiErr.Message)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", domai.ErrEmptyResponse
	}
	return out, nil
}
