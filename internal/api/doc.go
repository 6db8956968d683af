// Package api implements the HTTP REST API and WebSocket stream for the
// device inventory.
//
// This package provides:
//   - REST endpoints for devices, users and history
//   - Checkout and checkin endpoints driving the device state machine
//   - A one-way WebSocket stream of history records, filterable by action
//   - Prometheus metrics at /metrics
//   - Optional JWT bearer auth on mutating routes
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Handlers are thin: they decode the request, call device.Manager,
// user.Registry or history.Recorder, and map domain errors to HTTP
// responses in one place (writeDomainError). No business rule lives here.
//
// Responses are bare JSON arrays and objects. Errors use
//
//	{"status": 400, "code": "conflict", "error": "serial number already exists"}
//
// # Security
//
// With security.jwt.secret unset every route is open. With it set, POST
// and PUT routes need a bearer token whose role grants the route's
// permission, and /ws needs a valid token in the token query parameter.
package api
