package reembed

import "errors"

// ErrInvalidMaxAttempts is returned by RetryWithBackoff when maxAttempts
// is not positive.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
