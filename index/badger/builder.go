package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/boroughs/ai"
	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/index"
)

// Builder persists one BadgerDB directory per index snapshot under a base
// directory. The directory name is the neighborhood's index name.
type Builder struct {
	dir      string
	prefix   string
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ index.Builder = (*Builder)(nil)

// Option configures a Builder.
type Option func(*Builder)

// WithPrefix sets the snapshot name prefix.
func WithPrefix(prefix string) Option {
	return func(b *Builder) {
		b.prefix = prefix
	}
}

// WithLogger sets the logger used by the builder and its snapshots.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a builder storing snapshots under dir.
func NewBuilder(dir string, embedder ai.Embedder, opts ...Option) *Builder {
	b := &Builder{
		dir:      dir,
		prefix:   index.DefaultPrefix,
		embedder: embedder,
		logger:   slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) snapshotPath(key core.NeighborhoodKey) string {
	return filepath.Join(b.dir, key.IndexName(b.prefix))
}

// Exists reports whether a snapshot has been written for key.
func (b *Builder) Exists(key core.NeighborhoodKey) bool {
	_, err := os.Stat(filepath.Join(b.snapshotPath(key), badger.ManifestFilename))
	return err == nil
}

// Build embeds chunks in one batch and writes them as the snapshot for key.
// Empty chunks are ignored, and a chunk whose content ID was already seen is
// kept only at its first position. A previous snapshot with the same name is removed.
func (b *Builder) Build(ctx context.Context, key core.NeighborhoodKey, chunks []string) (index.Index, error) {
	if err := core.ValidateKey(key); err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(chunks))
	ids := make([]core.ID, 0, len(chunks))
	seen := make(map[core.ID]struct{}, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		id := core.IDFromContent(chunk)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		texts = append(texts, chunk)
		ids = append(ids, id)
	}
	if skipped := len(chunks) - len(texts); skipped > 0 {
		b.logger.Debug("dropped empty or repeated chunks", "count", skipped)
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = b.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
		}
	}

	name := key.IndexName(b.prefix)
	path := b.snapshotPath(key)
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("failed to remove previous snapshot %s: %w", name, err)
	}

	backend, err := OpenBackend(path, b.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", name, err)
	}

	wb := backend.NewWriteBatch()
	defer wb.Cancel()
	for i, text := range texts {
		record := &core.ChunkRecord{
			Id:       ids[i],
			Position: i,
			Text:     text,
			Vector:   index.NormalizeVector(vectors[i]),
		}
		if err := core.ValidateChunk(record); err != nil {
			backend.Close()
			return nil, err
		}
		if err := wb.Set(makeChunkKey(i), MarshalChunkRecord(record)); err != nil {
			backend.Close()
			return nil, err
		}
	}
	if err := wb.Set([]byte(metaCountKey), encodeCount(len(texts))); err != nil {
		backend.Close()
		return nil, err
	}
	if err := wb.Set([]byte(metaNameKey), []byte(name)); err != nil {
		backend.Close()
		return nil, err
	}
	if err := wb.Flush(); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}

	b.logger.Info("built index", "name", name, "chunks", len(texts))
	return newSnapshot(name, backend, b.embedder, len(texts), b.logger), nil
}

// Reload opens the snapshot for key. No chunk is re-embedded.
func (b *Builder) Reload(ctx context.Context, key core.NeighborhoodKey) (index.Index, error) {
	if err := core.ValidateKey(key); err != nil {
		return nil, err
	}
	name := key.IndexName(b.prefix)
	if !b.Exists(key) {
		return nil, fmt.Errorf("%w: %s", core.ErrIndexNotFound, name)
	}

	backend, err := OpenBackend(b.snapshotPath(key), b.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", name, err)
	}

	count := 0
	err = backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(metaCountKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			count = decodeCount(val)
			return nil
		})
	}, false)
	if err != nil {
		backend.Close()
		return nil, err
	}

	b.logger.Info("reloaded index", "name", name, "chunks", count)
	return newSnapshot(name, backend, b.embedder, count, b.logger), nil
}
