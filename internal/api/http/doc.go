// Package http exposes the popup bridge over HTTP.
//
// The extension popup opens a session with POST /popup, sends user events
// to POST /popup/:id/events and renders whatever Render value comes back.
// Cart, scraping and popup log forwarding sit alongside.
package http
