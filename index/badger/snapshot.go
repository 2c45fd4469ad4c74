package badger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/boroughs/ai"
	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/index"
)

// Snapshot is an open index snapshot. It implements index.Index.
type Snapshot struct {
	name     string
	backend  *Backend
	embedder ai.Embedder
	count    int
	logger   *slog.Logger
}

var _ index.Index = (*Snapshot)(nil)

type scoredChunk struct {
	record *core.ChunkRecord
	score  float32
}

func newSnapshot(name string, backend *Backend, embedder ai.Embedder, count int, logger *slog.Logger) *Snapshot {
	return &Snapshot{
		name:     name,
		backend:  backend,
		embedder: embedder,
		count:    count,
		logger:   logger,
	}
}

// Name returns the snapshot name.
func (s *Snapshot) Name() string {
	return s.name
}

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int {
	return s.count
}

// Close closes the snapshot's database.
func (s *Snapshot) Close() error {
	return s.backend.Close()
}

// Query returns up to k chunks ranked by cosine similarity to text.
// Chunks with equal scores keep their position order.
func (s *Snapshot) Query(ctx context.Context, text string, k int) ([]core.Snippet, error) {
	if k <= 0 || s.count == 0 {
		return []core.Snippet{}, nil
	}

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	vector = index.NormalizeVector(vector)
	if index.IsDegenerate(vector) {
		s.logger.Debug("degenerate query vector", "name", s.name, "query", text)
		return []core.Snippet{}, nil
	}

	scored, err := s.findSimilar(vector)
	if err != nil {
		return nil, err
	}

	if len(scored) > k {
		scored = scored[:k]
	}
	snippets := make([]core.Snippet, len(scored))
	for i, sc := range scored {
		snippets[i] = core.Snippet{
			Content: sc.record.Text,
			Query:   text,
		}
	}
	return snippets, nil
}

// findSimilar scores every chunk against vector, most similar first.
func (s *Snapshot) findSimilar(vector []float32) ([]scoredChunk, error) {
	var results []scoredChunk

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.ChunkRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(record.Vector) == 0 {
				continue
			}
			results = append(results, scoredChunk{
				record: record,
				score:  index.DotProduct(vector, record.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Iteration is in position order; a stable sort keeps it for ties.
	slices.SortStableFunc(results, func(a, b scoredChunk) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return 0
	})
	return results, nil
}
