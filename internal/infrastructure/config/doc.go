// Package config provides 12-factor configuration management for the
// window server.
//
// Configuration is loaded from environment variables with sensible
// defaults. An optional YAML seed file describes the displays to create
// at boot; without one a single freeform-capable display is used.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Lifecycle: pause-ack timeout and stop delay
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting configuration
//   - Persist: task snapshot directory
//   - Notify: organizer webhook target
//   - Displays: display seed file path
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - PAUSE_ACK_TIMEOUT, STOP_DELAY
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - PERSIST_DIR, PERSIST_ENABLED
//   - ORGANIZER_WEBHOOK_URL, ORGANIZER_WEBHOOK_RETRIES
//   - DISPLAY_SEED_PATH
package config
