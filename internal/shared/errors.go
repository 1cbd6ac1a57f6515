package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("token expired or expiring soon")
	ErrMissingToken     = fmt.Errorf("token not found")

	// API and store errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrStoreUnavailable = fmt.Errorf("backing store unavailable")
	ErrNotFound         = fmt.Errorf("not found")
	ErrNoAutomation     = fmt.Errorf("Music.app automation not available")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
