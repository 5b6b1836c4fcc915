// Package stores provides the persistence layer for fit runs.
// It includes SQLite-based storage with WAL mode, connection pooling,
// embedded migrations, and CRUD operations for runs and their marginal
// posteriors.
package stores
