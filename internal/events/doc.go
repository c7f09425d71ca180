// Package events decouples request-path services from the background
// runner. A service that commits a generation job emits an Event; the
// task factory registered as a Handler turns it into a queued task.
// Neither side imports the other, which keeps the dependency graph
// acyclic.
package events
