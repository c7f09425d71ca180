// Package postgres provides PostgreSQL implementations of the store
// interfaces. All stores accept a store.DBTX so they run identically
// against a connection pool or an open transaction, and they map driver
// errors onto the store package's sentinel errors.
package postgres
