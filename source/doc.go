// Package source loads the local material a neighborhood's record is built
// from: a PDF guide per neighborhood, or a JSON file mapping each
// neighborhood to per-category content.
//
// A missing file is reported as core.ErrSourceNotFound so the pipeline can
// skip the neighborhood instead of aborting the run.
package source
