package pipeline

import "errors"

var (
	// ErrStartupValidation indicates the configured chain failed structural
	// validation. Joined with the individual validator errors.
	ErrStartupValidation = errors.New("middleware chain failed startup validation")

	// ErrUnknownMiddleware indicates a configured middleware name has no
	// registered factory.
	ErrUnknownMiddleware = errors.New("unknown middleware name")
)
