package ai

import "errors"

// ErrNoChoices indicates the model answered without any choices.
var ErrNoChoices = errors.New("model returned no choices")

// Generation backends selectable through Config.Backend.
const (
	// BackendLangchain talks to any OpenAI-compatible host through langchaingo.
	BackendLangchain = "langchaingo"

	// BackendOpenAI talks to the hosted OpenAI API through the official SDK.
	BackendOpenAI = "openai"
)

// Backends lists the valid values for Config.Backend.
var Backends = []string{
	BackendLangchain,
	BackendOpenAI,
}
