/*
Package monitoring provides Prometheus metrics for the popup bridge.

# Overview

Metrics live on a private registry so tests and embedded uses do not
collide with the global default registry.

# Features

- HTTP request metrics (latency, status, response size)
- Scoring backend call metrics (op, outcome, latency)
- Session phase transitions and open popup count
- WebSocket connection metrics

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

Metrics also satisfies the scoring Recorder and session Observer
interfaces.
*/
package monitoring
