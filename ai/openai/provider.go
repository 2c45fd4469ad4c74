// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/boroughs/ai"
	"github.com/poiesic/boroughs/ai/openaisdk"
)

// Provider implements ai.AIProvider for OpenAI-compatible endpoints.
type Provider struct {
	embedder  *Embedder
	generator ai.Generator
	logger    *slog.Logger
}

// NewProvider validates config and builds both services from it. The
// generator implementation follows config.Backend.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	generator, err := generatorFor(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s generator: %w", config.Backend, err)
	}

	logger := slog.Default().With("component", "openai-provider", "backend", config.Backend)
	logger.Debug("provider ready",
		"embedding_model", config.EmbeddingModel,
		"generation_model", config.GenerationModel)

	return &Provider{embedder: embedder, generator: generator, logger: logger}, nil
}

func generatorFor(config *ai.Config) (ai.Generator, error) {
	if config.Backend == ai.BackendOpenAI {
		return openaisdk.NewGenerator(config)
	}
	return newGenerator(config)
}

func (p *Provider) Embedder() ai.Embedder   { return p.embedder }
func (p *Provider) Generator() ai.Generator { return p.generator }

// Close is a no-op; neither client holds connections that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("provider closed")
	return nil
}
