package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"budget-meal-planner/internal/config"
)

// GeminiClient is a client for the Google Gemini API. It serves both text
// and image prompts.
type GeminiClient struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	vision      *genai.GenerativeModel
	modelName   string
	visionModel string
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.GeminiModel)
	model.SetTemperature(0.4)
	vision := client.GenerativeModel(cfg.GeminiVisionModel)
	vision.SetTemperature(0.1)
	return &GeminiClient{
		client:      client,
		model:       model,
		vision:      vision,
		modelName:   cfg.GeminiModel,
		visionModel: cfg.GeminiVisionModel,
	}, nil
}

func (c *GeminiClient) Provider() string { return "gemini" }

// GenerateContent sends a prompt to the Gemini model and returns the generated text.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return ContentResponse{}, &TransportError{Provider: c.Provider(), Err: err}
	}
	return geminiResponse(resp, c.modelName)
}

// GenerateFromImage sends a prompt together with a photo.
func (c *GeminiClient) GenerateFromImage(ctx context.Context, prompt string, img Image) (ContentResponse, error) {
	if len(img.Data) == 0 {
		return ContentResponse{}, errors.New("image is empty")
	}
	format := strings.TrimPrefix(img.MIMEType, "image/")
	if format == "" {
		format = "jpeg"
	}
	resp, err := c.vision.GenerateContent(ctx, genai.ImageData(format, img.Data), genai.Text(prompt))
	if err != nil {
		return ContentResponse{}, &TransportError{Provider: c.Provider(), Err: err}
	}
	return geminiResponse(resp, c.visionModel)
}

func geminiResponse(resp *genai.GenerateContentResponse, model string) (ContentResponse, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ContentResponse{}, &TransportError{Provider: "gemini", Err: errors.New("no content generated")}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := ContentResponse{Content: sb.String(), Usage: Usage{Model: model}}
	if u := resp.UsageMetadata; u != nil {
		out.Usage.PromptTokens = int(u.PromptTokenCount)
		out.Usage.CompletionTokens = int(u.CandidatesTokenCount)
		out.Usage.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
