package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrNoSourceChunks is returned when a generation request carries no
	// document chunks to ground the prompt on.
	ErrNoSourceChunks = errors.New("generation request has no source chunks")
)
