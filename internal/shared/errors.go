package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Catalog errors
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrUnsupportedResource = fmt.Errorf("unsupported resource kind")
	ErrAuthentication      = fmt.Errorf("authentication failed")
	ErrCatalogTransport    = fmt.Errorf("catalog request failed")
	ErrRetryExhausted      = fmt.Errorf("retries exhausted")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Matching and download errors
	ErrNoMatchFound    = fmt.Errorf("no match found")
	ErrStream          = fmt.Errorf("stream failed")
	ErrDuplicateOutput = fmt.Errorf("output path already in use")

	// Track lifecycle errors
	ErrInvalidTransition = fmt.Errorf("invalid status transition")
	ErrTrackNotFound     = fmt.Errorf("track not found")
	ErrPlaylistNotFound  = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrMissingArgument    = fmt.Errorf("missing required argument")
	ErrInvalidArgument    = fmt.Errorf("invalid argument")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
)
