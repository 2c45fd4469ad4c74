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


package index

import (
	"context"

	"github.com/poiesic/boroughs/core"
)

// DefaultPrefix is the snapshot name prefix used when none is configured.
const DefaultPrefix = "faiss_index"

// Index answers k-nearest-neighbor queries over indexed chunks.
type Index interface {
	// Name returns the snapshot name the index was built or reloaded under.
	Name() string

	// Query embeds text and returns up to k snippets, most similar first.
	// A degenerate query vector or an empty index yields an empty slice.
	Query(ctx context.Context, text string, k int) ([]core.Snippet, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Close releases the underlying storage.
	Close() error
}

// Builder creates and reloads named index snapshots.
type Builder interface {
	// Build embeds chunks and persists them as the snapshot for key,
	// replacing any previous snapshot of the same name.
	Build(ctx context.Context, key core.NeighborhoodKey, chunks []string) (Index, error)

	// Reload opens a previously built snapshot without re-embedding.
	// Returns core.ErrIndexNotFound if no snapshot exists for key.
	Reload(ctx context.Context, key core.NeighborhoodKey) (Index, error)

	// Exists reports whether a snapshot exists for key.
	Exists(key core.NeighborhoodKey) bool
}
