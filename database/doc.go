// Package database provides connection management for sqlite, mysql and
// postgres through Bun, explicit schemas and their migrations, query hooks,
// SQL error classification and the data layer's logger.
package database
