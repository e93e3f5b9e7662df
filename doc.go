// Package echotune provides the EchoTune recommendation API server.

// This package contains the main application entry points. The actual
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/engine: Recommendation engine (profiles, similarity, ranking)
// - internal/models: Data models and database schemas
// - internal/history: Play history, feedback and impression persistence
// - internal/cache: Profile cache (Redis and in-memory)
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (request IDs, logging, metrics)
// - internal/metrics: Prometheus metrics
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package echotune
