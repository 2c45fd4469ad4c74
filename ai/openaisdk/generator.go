// Package openaisdk implements ai.Generator with the official OpenAI Go SDK.
package openaisdk

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/poiesic/boroughs/ai"
)

// Generator implements ai.Generator using chat completions with a
// json_object response format.
type Generator struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *slog.Logger
}

// NewGenerator creates a generator for config.GenerationHost.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config, opts ...option.RequestOption) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(config.Token()),
		option.WithBaseURL(strings.TrimSuffix(config.GenerationHost, "/") + "/"),
	}
	clientOpts = append(clientOpts, opts...)

	return &Generator{
		client:      openai.NewClient(clientOpts...),
		model:       config.GenerationModel,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openaisdk-generator"),
	}, nil
}

// Generate sends prompt as a system message and returns the first choice's content.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("generating content", "model", g.model, "promptLength", len(prompt))

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
		},
		Temperature: openai.Float(g.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(completion.Choices) < 1 {
		g.logger.Warn("no choices returned from model", "model", g.model)
		return "", ai.ErrNoChoices
	}

	return completion.Choices[0].Message.Content, nil
}
