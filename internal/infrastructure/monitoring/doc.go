/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the
window server, tracking HTTP requests, tree mutations, lifecycle
transitions, visibility resolutions, and organizer dispatch.

# Features

- HTTP request metrics (latency, throughput)
- Task group / screen unit population gauges
- Lifecycle transition counters by target state
- Visibility classification counters by result
- Executor queue wait histogram
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record domain metrics
	metrics.RecordTransition("resumed")
	metrics.SetTaskGroupsActive(5)

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
