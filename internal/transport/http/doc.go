// Package http implements the HTTP request handlers for the dashboard API.
// It provides a thin layer between HTTP transport and business logic.
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to RFC 7807 responses
//	4. No business logic - all logic belongs in the service layer
//
// Each handler exposes a Routes() chi.Router which the application mounts
// under /api.
package http
