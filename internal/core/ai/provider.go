// Package ai talks to the vision model provider. The Provider interface is
// what the extraction pipeline depends on; the OpenRouter client is the only
// production implementation.
package ai

import "context"

// Attachment is a document sent alongside the prompt. Images travel as
// image_url parts, PDFs as file parts.
type Attachment struct {
	MIMEType string
	FileName string
	Data     []byte
}

// IsImage reports whether the attachment should be sent as an image part.
func (a *Attachment) IsImage() bool {
	return len(a.MIMEType) > 6 && a.MIMEType[:6] == "image/"
}

// Request is one model invocation.
type Request struct {
	Prompt     string
	Attachment *Attachment
	MaxTokens  int
}

// Usage is the token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the model output. Model names which entry of the fallback
// chain actually answered.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Provider generates model responses.
type Provider interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
	Close() error
}
