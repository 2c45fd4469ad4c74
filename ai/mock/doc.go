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


// Package mock holds in-memory stand-ins for the ai services so the chunker,
// index snapshots and refiner can be tested without a model endpoint.
//
// MockEmbedder hashes text into repeatable unit vectors. MockGenerator
// replies with "{}" unless it is given canned replies or a function:
//
//	generator := mock.NewMockGenerator().
//	    WithReplies(`{"name":"Lucy's Diner","description":"Counter service since 1952.","address":"Bedford Ave"}`)
//	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), generator)
//
// Both record their calls; the generator also keeps every prompt it saw, so
// tests can assert on what the refiner asked for:
//
//	require.Equal(t, 2, generator.CallCount())
//	assert.Contains(t, generator.Prompts()[0], "Restaurants")
package mock
