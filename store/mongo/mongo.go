// Package mongo stores neighborhood records in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultDatabase   = "insiderhood"
	DefaultCollection = "neighborhood_summaries"

	defaultTimeout = 10 * time.Second
)

// ErrNoDocuments indicates Insert was called without documents.
var ErrNoDocuments = errors.New("no documents to insert")

// Config locates the record collection.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration // Per-operation timeout
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.Database) == "" {
		c.Database = DefaultDatabase
	}
	if strings.TrimSpace(c.Collection) == "" {
		c.Collection = DefaultCollection
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Store is a MongoDB-backed store.RecordStore. One client is shared by every
// write for the life of the process.
type Store struct {
	client     *mongo.Client
	database   *mongo.Database
	collection string
	timeout    time.Duration
	logger     *slog.Logger
}

var _ store.RecordStore = (*Store)(nil)

// Connect dials MongoDB and pings the primary.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	cfg.normalize()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	s := New(client, cfg)
	s.logger.Info("connected", "database", cfg.Database, "collection", cfg.Collection)
	return s, nil
}

// New wraps an already connected client.
func New(client *mongo.Client, cfg Config) *Store {
	cfg.normalize()
	return &Store{
		client:     client,
		database:   client.Database(cfg.Database),
		collection: cfg.Collection,
		timeout:    cfg.Timeout,
		logger:     slog.Default().With("component", "mongo"),
	}
}

// Upsert replaces the document matching filter in collection, inserting doc
// if nothing matches.
func (s *Store) Upsert(ctx context.Context, collection string, filter, doc any) (*mongo.UpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	return s.database.Collection(collection).ReplaceOne(ctx, filter, doc, opts)
}

// Insert adds one or more documents to collection and returns their ids.
func (s *Store) Insert(ctx context.Context, collection string, docs ...any) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coll := s.database.Collection(collection)
	switch len(docs) {
	case 0:
		return nil, ErrNoDocuments
	case 1:
		res, err := coll.InsertOne(ctx, docs[0])
		if err != nil {
			return nil, err
		}
		return []any{res.InsertedID}, nil
	default:
		res, err := coll.InsertMany(ctx, docs)
		if err != nil {
			return nil, err
		}
		return res.InsertedIDs, nil
	}
}

// SaveRecord upserts record into the configured collection, keyed by
// neighborhood and borough.
func (s *Store) SaveRecord(ctx context.Context, record *core.NeighborhoodRecord) error {
	if err := core.ValidateKey(record.Key); err != nil {
		return err
	}
	res, err := s.Upsert(ctx, s.collection, Filter(record.Key), Document(record))
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", record.Key, err)
	}
	s.logger.Debug("saved record",
		"neighborhood", record.Key.Neighborhood,
		"borough", record.Key.Borough,
		"matched", res.MatchedCount,
		"upserted", res.UpsertedCount)
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Filter is the exact-match upsert filter for key.
func Filter(key core.NeighborhoodKey) bson.D {
	f := key.Filter()
	return bson.D{
		{Key: "neighborhood", Value: f["neighborhood"]},
		{Key: "borough", Value: f["borough"]},
	}
}

// Document is the replacement document written for record.
func Document(record *core.NeighborhoodRecord) bson.M {
	return bson.M(record.Document())
}
