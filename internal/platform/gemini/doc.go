// Package gemini implements the generation.Generator interface using
// Google's Gemini API. Prompts are built from embedded templates, one
// per job kind, and responses are requested as JSON and parsed into
// candidate batches. Transient API failures are retried with
// exponential backoff and jitter; blocked or malformed responses fail
// immediately so the orchestrator can classify them via the
// generation error taxonomy.
package gemini
