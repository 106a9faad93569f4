// Package cart manages the persisted list of alternatives the user kept.
// Entries are unique by (url, lowercased name) and stay in insertion order.
package cart
