// Package config provides 12-factor configuration for the eco-score popup engine.
//
// Sources are layered, later ones win:
//  1. Defaults (Default)
//  2. Optional config file, YAML (.yaml/.yml) or TOML (.toml)
//  3. Environment variables prefixed with ECOSWIPE_
//  4. CLI flags, applied by cmd/ecoswipe
//
// Configuration Sections:
//   - Server: popup bridge listen address, CORS origins, idle popup timeout
//   - Backend: scoring backend candidates, model hint, timeouts
//   - Storage: persistence driver (memory, file, sqlite), path, page retention cap
//   - Session: alternative limit, preview images
//   - Logging: log level and output format
//   - RateLimit: per-client limits on the bridge
//
// Environment Variables:
//   - ECOSWIPE_SERVER_PORT, ECOSWIPE_SERVER_HOST
//   - ECOSWIPE_SERVER_ALLOW_ORIGINS, ECOSWIPE_SERVER_POPUP_IDLE
//   - ECOSWIPE_BACKEND_CANDIDATES (comma separated), ECOSWIPE_BACKEND_MODEL
//   - ECOSWIPE_BACKEND_PROBE_TIMEOUT, ECOSWIPE_BACKEND_REQUEST_TIMEOUT
//   - ECOSWIPE_BACKEND_REQUESTS_PER_SECOND
//   - ECOSWIPE_STORAGE_DRIVER, ECOSWIPE_STORAGE_PATH, ECOSWIPE_STORAGE_MAX_PAGES
//   - ECOSWIPE_SESSION_ALTERNATIVE_LIMIT, ECOSWIPE_SESSION_PREVIEWS
//   - ECOSWIPE_LOGGING_LEVEL, ECOSWIPE_LOGGING_DEVELOPMENT
//   - ECOSWIPE_RATE_LIMIT_REQUESTS_PER_SECOND, ECOSWIPE_RATE_LIMIT_BURST
//   - ECOSWIPE_RATE_LIMIT_ENABLED
//
// Example Usage:
//
//	cfg, err := config.Load(os.Getenv("ECOSWIPE_CONFIG"))
//	fmt.Printf("bridge listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config
