package placement

import "errors"

var (
	// ErrInvalidParameter covers bad spacing, via geometry and clearances
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNetNotFound is returned when the via net is not on the board
	ErrNetNotFound = errors.New("net not found")
	// ErrEmptyRegion is returned for a missing region or one without area
	ErrEmptyRegion = errors.New("empty region")
	// ErrHostCommit wraps host failures to add a via; these are skips, not run errors
	ErrHostCommit = errors.New("host rejected via")
)
