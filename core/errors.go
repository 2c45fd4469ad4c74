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

import "errors"

var (
	// ErrInvalidKey indicates a NeighborhoodKey failed validation.
	ErrInvalidKey = errors.New("invalid neighborhood key")

	// ErrEmptyNeighborhood indicates the Neighborhood field is empty.
	ErrEmptyNeighborhood = errors.New("neighborhood cannot be empty")

	// ErrEmptyBorough indicates the Borough field is empty.
	ErrEmptyBorough = errors.New("borough cannot be empty")

	// ErrInvalidChunk indicates a ChunkRecord failed validation.
	ErrInvalidChunk = errors.New("invalid chunk record")

	// ErrEmptyContent indicates a text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrUnknownPolicy indicates a policy name that is neither narrative nor itemized.
	ErrUnknownPolicy = errors.New("unknown extraction policy")

	// ErrUnknownCategory indicates a category missing from the category table.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrSourceNotFound indicates the local source material for a neighborhood is absent.
	ErrSourceNotFound = errors.New("source material not found")

	// ErrIndexNotFound indicates no persisted index snapshot exists under the requested name.
	ErrIndexNotFound = errors.New("index snapshot not found")

	// ErrRetrievalFailed wraps collaborator failures raised while gathering snippets.
	ErrRetrievalFailed = errors.New("retrieval failed")
)
