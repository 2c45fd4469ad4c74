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


// Package openai builds the ai services against OpenAI-compatible HTTP
// endpoints: api.openai.com itself, or a local server such as Ollama or vLLM
// that speaks the same protocol.
//
// Embeddings always go through langchaingo. Generation uses langchaingo by
// default; with Config.Backend set to ai.BackendOpenAI the provider swaps in
// the official SDK client from ai/openaisdk, which asks for JSON-object
// replies natively.
//
//	provider, err := openai.NewProvider(ai.NewConfig(
//	    ai.WithAPIKey(secrets.OpenAIKey),
//	    ai.WithGenerationModel("gpt-4o-mini"),
//	    ai.WithBackend(ai.BackendOpenAI),
//	))
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
package openai
