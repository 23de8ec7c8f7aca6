package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLookupTransport marks a geocode lookup that failed on the network or
	// with a non-2xx response.
	ErrLookupTransport = errors.New("geocode lookup failed")

	// ErrLookupEmpty marks a successful geocode response without coordinates.
	ErrLookupEmpty = errors.New("geocode lookup returned no coordinates")

	// ErrEmptyMarkerSet is returned by FrameMarkers when called without
	// markers. It signals a caller bug, not an empty search result.
	ErrEmptyMarkerSet = errors.New("bounding region requires at least one marker")

	// ErrBlankTown is returned when a map view is requested without a town.
	ErrBlankTown = errors.New("town is required")
)

// LookupError ties a lookup failure to the postcode that caused it.
type LookupError struct {
	Postcode string
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("postcode %q: %v", e.Postcode, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Kind maps the wrapped error onto a FailureKind.
func (e *LookupError) Kind() FailureKind {
	if errors.Is(e.Err, ErrLookupEmpty) {
		return FailureEmpty
	}
	return FailureTransport
}

// PortalError is a non-2xx answer from the data portal.
type PortalError struct {
	StatusCode int
	Body       string
}

func (e *PortalError) Error() string {
	return fmt.Sprintf("portal API error: status %d: %s", e.StatusCode, e.Body)
}

// CallerFault reports whether the portal rejected the request itself
// (4xx), typically a wrong or missing API key.
func (e *PortalError) CallerFault() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsCallerFault reports whether err wraps a PortalError with a 4xx status.
func IsCallerFault(err error) bool {
	var pe *PortalError
	return errors.As(err, &pe) && pe.CallerFault()
}
