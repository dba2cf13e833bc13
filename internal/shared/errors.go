package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Identity errors
	ErrLoginRequired = fmt.Errorf("login required")
	ErrInitFailed    = fmt.Errorf("login initialization failed")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// Wardrobe service errors
	ErrLoadFailed         = fmt.Errorf("failed to load wardrobe")
	ErrUploadFailed       = fmt.Errorf("upload failed")
	ErrDeleteFailed       = fmt.Errorf("delete failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors, raised before any network call
	ErrValidation      = fmt.Errorf("validation failed")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Page lifecycle errors
	ErrNotReady = fmt.Errorf("page is not ready")
)
