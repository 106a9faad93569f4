// Package backend locates a reachable scoring service.
//
// Candidates are probed once, in order, with GET <candidate>/health. The first
// 2xx answer wins and later candidates are never contacted. When every probe
// fails the locator reports ErrUnreachable and keeps reporting it; there are
// no retries and no backoff within a session.
package backend
