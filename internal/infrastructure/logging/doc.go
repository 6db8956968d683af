// Package logging provides structured logging for the inventory service.
//
// It wraps log/slog so every entry carries the service name and build
// version, with JSON output for production and text for development.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Never log secrets or bearer tokens.
package logging
