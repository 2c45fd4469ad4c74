// Package retrieval gathers candidate snippets for one neighborhood and
// category.
//
// Two strategies are selected per category by the category table:
// KeywordRetriever queries the neighborhood's vector index and keeps hits
// containing one of the category's keywords, and SearchRetriever issues one
// web search built from the category's template. Router dispatches between
// them, falling back to the other strategy when the preferred one is not
// available for a run. MaterialRetriever serves pre-extracted JSON content.
//
// Zero results is not an error. Collaborator failures are wrapped in
// core.ErrRetrievalFailed.
package retrieval
