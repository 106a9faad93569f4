// Package scoring talks to the eco-score service.
//
// Judge posts a product to /judge and reads a numeric ecoscore; Search posts
// to /search and normalizes up to limit alternatives, keeping the service's
// order. Outcomes are classified as ErrBackendUnreachable, ErrRequestFailed
// (with *RequestError carrying non-2xx statuses) or ErrMalformedResponse.
// Nothing is retried.
//
// Preview is best effort: it asks the optional image helpers for a card image
// and falls back to a text placeholder.
package scoring
