package generation

import "errors"

// Common errors returned by generators. The orchestrator uses this
// taxonomy to decide between retrying a batch and failing the job.
var (
	// ErrGenerationFailed is returned when generation fails for a reason
	// that will not improve on retry.
	ErrGenerationFailed = errors.New("failed to generate study items")

	// ErrInvalidResponse is returned when the model response cannot be
	// parsed into candidate items.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model refuses the request
	// because of safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors, rate limits
	// and upstream outages, that may resolve on retry.
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the generator configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// IsTransient reports whether err is worth retrying. Everything outside
// ErrTransientFailure is treated as permanent so the worker fails fast
// on malformed responses and blocked content.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientFailure)
}
