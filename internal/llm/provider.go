// Package llm defines the minimal interface the pipeline needs from the
// external LLM advisor, so UNDERSTAND and SEARCH's validation phase can be
// tested against fakes without a real model endpoint.
package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the subset of an OpenAI-compatible chat client the pipeline
// depends on. Any local or hosted backend that speaks the same wire format
// can be adapted to this interface.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider adapts *openai.Client to Client.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}
