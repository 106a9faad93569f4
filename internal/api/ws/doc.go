// Package ws streams popup renders to the extension over a WebSocket, so
// interim renders such as "Analyzing..." reach the popup as they happen.
package ws
