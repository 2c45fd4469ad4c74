// Package refine turns retrieved snippets into a category result by prompting
// a text-generation model.
//
// The category's policy picks the shape of the result. Narrative categories
// send all snippet text in one request and get back blended prose; the
// source URLs are the snippets' URLs in retrieval order. Itemized categories
// send one request per snippet and get back one named entity each, tagged
// with the snippet's URL. Entities are not deduplicated.
//
// Replies are decoded in two stages. Fenced-code markers are stripped and a
// strict decode is attempted, then a repaired form of the text is tried.
// A reply that still fails becomes a raw result instead of an error.
// Transport errors from the model are returned to the caller.
package refine
