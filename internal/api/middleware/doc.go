// Package middleware holds gin middleware for the popup bridge: CORS for
// extension origins, per-IP rate limiting and request ids.
package middleware
