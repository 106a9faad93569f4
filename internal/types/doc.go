// Package types provides the shared data structures for the eco-score popup engine.
//
// Core Types:
//   - Product: identity of the page being judged (name, link)
//   - Score: nullable eco-score with the 3.0 acceptability threshold
//   - Alternative: greener candidate returned by the search backend
//   - SessionState: per-page-URL browsing state, persisted after every mutation
//   - CartItem: an alternative the user chose to keep
//
// SessionState Invariants:
//   - len(AltScores) == len(Alternatives)
//   - CurrentIndex is a valid index when Alternatives is non-empty, otherwise 0
//
// Example Usage:
//
//	state := types.NewSessionState(types.Product{Name: "Plastic Bottle", Link: link})
//	state.SetAlternatives(results)
//	state.SetScore(0, types.ScoreOf(4.0))
package types
