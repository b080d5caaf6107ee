// Package app wires the application together: configuration, logging,
// services, HTTP router and server lifecycle.
//
// The Application container owns every long-lived component and is the only
// place where concrete types meet. Construction order matters: config, then
// logger, then metrics and hub, then services, then router and server.
// Run blocks until an interrupt signal arrives and then shuts down
// gracefully within the configured timeout.
package app
