// Package mocks provides shared test doubles for the store, generation,
// auth, and event interfaces. Every mock follows the same convention:
// set the Fn field to script a method, or leave it nil for a simple
// in-memory default. Mocks are not safe for concurrent use unless a
// test arranges its own synchronization.
package mocks
