package llm

import "errors"

var (
	// ErrUnavailable indicates the generator backend is unreachable.
	ErrUnavailable = errors.New("generator backend unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("generator request timed out")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("generator retry attempts exhausted")

	// ErrEmptyReply indicates the backend answered with no text.
	ErrEmptyReply = errors.New("generator returned an empty reply")

	// ErrMissingAPIKey indicates a hosted backend was selected without a key.
	ErrMissingAPIKey = errors.New("generator api key is not set")

	// ErrUnknownBackend indicates an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown generator backend")
)
