// Package services implements the business logic layer between HTTP handlers
// and the dataprocessing pipeline.
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//
// The AnalyticsService owns the single in-memory dataset session: it ingests
// uploads, tracks the active filter selection, and produces dashboard
// snapshots. The HealthService reports process liveness and runtime stats.
//
// Services return domain-specific errors that handlers transform into
// RFC 7807 problem responses.
package services
