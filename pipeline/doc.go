// Package pipeline drives neighborhoods through retrieval, refinement and
// persistence.
//
// A Driver processes neighborhoods one at a time. For each one a Preparer
// turns the key into a retrieval.Retriever, every category in the table is
// retrieved and refined in table order, the results are folded into a
// core.Accumulator and the finished record is written once through a
// store.RecordStore.
//
// A neighborhood whose local source material is missing is SKIPPED and the
// run continues. Any other failure aborts the run.
package pipeline
