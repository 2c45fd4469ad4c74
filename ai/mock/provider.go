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


package mock

import "github.com/poiesic/boroughs/ai"

// MockProvider pairs a MockEmbedder with a MockGenerator behind the
// ai.AIProvider interface, letting tests hand it to boroughs.Open in place
// of a live OpenAI-compatible backend.
type MockProvider struct {
	embedder  *MockEmbedder
	generator *MockGenerator
}

var _ ai.AIProvider = (*MockProvider)(nil)

// NewMockProvider returns a provider backed by default mocks.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockGenerator())
}

// NewMockProviderWithServices wraps mocks the caller has already configured,
// typically a generator primed with canned category replies.
func NewMockProviderWithServices(embedder *MockEmbedder, generator *MockGenerator) ai.AIProvider {
	return &MockProvider{embedder: embedder, generator: generator}
}

func (p *MockProvider) Embedder() ai.Embedder   { return p.embedder }
func (p *MockProvider) Generator() ai.Generator { return p.generator }
func (p *MockProvider) Close() error            { return nil }

// GetMockEmbedder exposes the concrete embedder for call-count assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder { return p.embedder }

// GetMockGenerator exposes the concrete generator for prompt assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator { return p.generator }
