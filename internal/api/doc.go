// Package api adapts HTTP to the application services: request
// decoding and validation, handler routing, and JSON response and
// error formatting. Handlers stay thin; behavior lives in the service
// layer.
package api
