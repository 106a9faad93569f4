// Package storage persists popup session state and the cart.
//
// A Store is a plain key -> blob interface with three backends:
//   - MemoryStore: process memory, used by tests and the "memory" driver
//   - FileStore: one JSON file per key, written with an atomic rename
//   - SQLiteStore: a single kv table on modernc.org/sqlite
//
// The Adapter layers two namespaces on top: a map from normalized page URL to
// SessionState (ecoswipe.pageStates) and the cart list (ecoswipe.cart). Page
// saves are read-modify-write of the whole map so unrelated URLs survive, and
// the map is capped by evicting the least recently updated entries.
//
// The adapter never hard-fails a read. When the store is missing or broken,
// loads return empty values and writes return ErrUnavailable, which callers
// log and ignore.
package storage
