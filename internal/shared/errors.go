package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Admin credential errors
	ErrAdminKeyUnset = fmt.Errorf("admin key not configured on server")
	ErrUnauthorized  = fmt.Errorf("unauthorized")
	ErrEmptyCookies  = fmt.Errorf("cookie file is empty")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Engine errors
	ErrEngineUnavailable = fmt.Errorf("extraction engine unavailable")
)
