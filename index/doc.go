// Package index defines the vector index used to retrieve neighborhood
// source text by similarity.
//
// An Index is built once per neighborhood from the chunker's output,
// persisted under a name derived from the neighborhood key, and reloaded on
// later runs without re-embedding. Queries are brute-force cosine kNN over
// unit-length vectors.
//
// The BadgerDB-backed implementation lives in the badger subpackage.
package index
