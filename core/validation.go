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


package core

import (
	"fmt"
	"strings"
)

// ValidateKey reports whether key names both a neighborhood and a borough.
// The error wraps ErrInvalidKey and the specific field error.
func ValidateKey(key NeighborhoodKey) error {
	var missing error
	switch {
	case blank(key.Neighborhood):
		missing = ErrEmptyNeighborhood
	case blank(key.Borough):
		missing = ErrEmptyBorough
	default:
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidKey, missing)
}

// ValidateChunk checks a chunk before it is written to an index snapshot.
func ValidateChunk(chunk *ChunkRecord) error {
	switch {
	case chunk == nil:
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	case chunk.Position < 0:
		return fmt.Errorf("%w: chunk %d has negative position %d", ErrInvalidChunk, chunk.Id, chunk.Position)
	case blank(chunk.Text):
		return fmt.Errorf("%w: chunk %d: %w", ErrInvalidChunk, chunk.Id, ErrEmptyContent)
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
