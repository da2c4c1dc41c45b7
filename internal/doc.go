// Package internal holds the booking server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, and chi routing
// - domain: users, events, bookings and images business logic
// - storage: PostgreSQL repositories and migrations
// - jobs: River workers for booking confirmation emails
// - auth, audit, config, email, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
