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


// Package ai defines the two model services the pipeline consumes.
//
// An Embedder maps text to vectors; the chunker uses it to find topic shifts
// between guide sentences and index snapshots use it for similarity search.
// A Generator sends a prompt to a chat model and returns its JSON reply; the
// refiner uses it to turn retrieved snippets into category entries.
//
// Production services come from ai/openai, which also selects the
// ai/openaisdk generator when Config.Backend asks for it. ai/mock supplies
// deterministic stand-ins. Production constructors return interfaces while
// the mock constructors return concrete types so tests can read CallCount and
// Prompts.
//
//	provider, err := openai.NewProvider(ai.NewConfig(ai.WithAPIKey(key)))
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//	vector, err := provider.Embedder().EmbedText(ctx, "Williamsburg, Brooklyn")
package ai
