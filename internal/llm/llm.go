package llm

import (
	"context"
	"time"
)

// Usage tracks the tokens consumed by a request.
type Usage struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   Usage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Image is an encoded photo sent alongside a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// VisionGenerator generates text from a prompt and one image.
type VisionGenerator interface {
	GenerateFromImage(ctx context.Context, prompt string, img Image) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// CallMeta is the operational record of one completion.
type CallMeta struct {
	Operation string
	Usage     Usage
	Latency   time.Duration
	Failed    bool
}
