// Package chunking splits document text into semantically coherent chunks
// for indexing.
//
// Text is cut into sentences on '.', each sentence is embedded, and the
// sentences are grouped by agglomerative clustering with Ward linkage. There
// is no fixed cluster count: merging stops once the closest pair of clusters
// is at least the distance threshold apart. Clusters are then packed, in
// ascending cluster id, into chunks bounded by a maximum character count.
//
// Cluster ids are canonical: a cluster's id is the rank of its first
// sentence, so output does not depend on merge order. Packing follows cluster
// order, not document order. A cluster longer than the bound is emitted as a
// chunk of its own without being split further.
package chunking
