package config

import "github.com/ayoisaiah/watchlog/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Message: "config validation error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing config file failed",
	}

	errInvalidThreshold = &apperr.Error{
		Message: "%s must be greater than zero, got %v",
	}

	errUnknownDriver = &apperr.Error{
		Message: "unknown storage driver: %s (must be bolt or sqlite)",
	}

	errUnknownLogLevel = &apperr.Error{
		Message: "unknown log level: %s",
	}

	errUnknownTimezone = &apperr.Error{
		Message: "unknown time zone: %s",
	}

	errInvalidCLIDuration = &apperr.Error{
		Message: "invalid %s duration: %v",
	}

	errInvalidPeriod = &apperr.Error{
		Message: "please provide a valid time period: %s",
	}

	errInvalidDate = &apperr.Error{
		Message: "unable to parse date %q",
	}
)
