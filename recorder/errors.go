package recorder

import (
	"github.com/ayoisaiah/watchlog/internal/apperr"
)

var (
	errFlushTimeout = &apperr.Error{
		Message: "timed out waiting for %s to be saved; the write will finish in the background",
	}

	errUnknownLifecycle = &apperr.Error{
		Message: "unknown lifecycle state: %q",
	}
)
