// Package service holds the application use cases that sit between the
// HTTP handlers and the stores: job submission and lifecycle, deck and
// document reads, quiz reads, and user management. Each service checks
// ownership before touching anything and translates store errors into
// the sentinels the API layer maps to status codes.
package service
