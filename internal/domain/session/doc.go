// Package session implements the popup state machine.
//
// A Machine owns one SessionState and moves through these phases:
//
//	idle -> judging -> acceptable
//	                -> needs_alternatives -> alternatives_loading -> alternatives_shown -> index_changed...
//
// Opening a page whose stored state already reached the alternatives stage
// jumps straight to alternatives_shown. Otherwise the product is judged while
// a search is prefetched in a single in-flight slot; the user's request for
// alternatives reuses or joins that search.
//
// Open and Dispatch return Render values for the presentation layer and
// never fail: unreachable backends, bad statuses and malformed bodies become
// status text. Every mutation of the state is persisted in full.
//
// A Registry maps popup ids to machines for the HTTP and websocket bridge.
//
// Example Usage:
//
//	m := session.NewMachine(session.Deps{Scorer: scorer, Pages: adapter, Cart: cart})
//	defer m.Close()
//	r := m.Open(ctx, session.PageInfo{URL: url, Title: title})
//	r = m.Dispatch(ctx, session.Event{Type: session.EventOpenAlternatives})
package session
