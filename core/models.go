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

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

type ID uint64

func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NeighborhoodKey identifies a neighborhood record. It is the upsert filter
// in the document store.
type NeighborhoodKey struct {
	Neighborhood string
	Borough      string
}

func (k NeighborhoodKey) String() string {
	return k.Neighborhood + ", " + k.Borough
}

// Slug returns the neighborhood name lowercased with spaces replaced by underscores.
func (k NeighborhoodKey) Slug() string {
	return slugify(k.Neighborhood)
}

// IndexName returns the snapshot name for the neighborhood's vector index.
// Format: <prefix>_<BOROUGH>_<neighborhood-slug>
func (k NeighborhoodKey) IndexName(prefix string) string {
	borough := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(k.Borough), " ", "_"))
	return prefix + "_" + borough + "_" + k.Slug()
}

// Filter returns the exact-match filter used to upsert the record.
func (k NeighborhoodKey) Filter() map[string]any {
	return map[string]any{
		"neighborhood": k.Neighborhood,
		"borough":      k.Borough,
	}
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// Category is a content category label such as "Restaurants" or "History".
type Category string

// Policy selects how a category's snippets are refined.
type Policy int

const (
	// PolicyNarrative blends all snippets into a single text plus source URLs.
	PolicyNarrative Policy = iota + 1
	// PolicyItemized extracts one named entity per snippet.
	PolicyItemized
)

func (p Policy) String() string {
	switch p {
	case PolicyNarrative:
		return "narrative"
	case PolicyItemized:
		return "itemized"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a policy name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "narrative":
		return PolicyNarrative, nil
	case "itemized":
		return PolicyItemized, nil
	default:
		return 0, ErrUnknownPolicy
	}
}

// Snippet is a unit of retrieved text. Snippets are values and are never
// modified after retrieval.
type Snippet struct {
	Content string
	URL     string // Optional source URL
	Query   string // Optional originating query
}

// Item is a named entity extracted by the itemized policy.
type Item struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Address     string `json:"address" bson:"address"`
	URL         string `json:"url" bson:"url"`
}

// ChunkRecord is a unit of indexed text together with its embedding.
type ChunkRecord struct {
	Id       ID
	Position int       // Position of the chunk in the chunker's output
	Text     string
	Vector   []float32 // Unit-length embedding
}

// NeighborhoodRecord is the aggregate persisted for a neighborhood.
type NeighborhoodRecord struct {
	Key        NeighborhoodKey
	RunID      string
	Categories map[Category]CategoryResult
	Order      []Category // Order in which categories were first merged
	UpdatedAt  time.Time
}

// Document renders the record in the shape stored in the document store.
func (r *NeighborhoodRecord) Document() map[string]any {
	response := make(map[string]any, len(r.Categories))
	for category, result := range r.Categories {
		response[string(category)] = result.Value()
	}
	return map[string]any{
		"neighborhood": r.Key.Neighborhood,
		"borough":      r.Key.Borough,
		"run_id":       r.RunID,
		"updated_at":   r.UpdatedAt,
		"response":     response,
	}
}
