// Package site recognizes supported marketplace pages and derives the
// per-page storage key.
package site
