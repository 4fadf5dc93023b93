package ndvi

import (
	"errors"
	"fmt"
)

// Precondition errors abort a run before any remote call is made.
var (
	ErrUnsupportedCadence = errors.New(`unsupported cadence: use "weekly" or "monthly"`)
	ErrRangeTooLong       = fmt.Errorf("date range exceeds the maximum of %d days", MaxRangeDays)
	ErrTooManyIntervals   = fmt.Errorf("date range produces more than %d intervals; shorten the period or change the cadence", MaxIntervals)
)

// ErrNoAcquisition reports that the catalog returned zero candidates for an
// interval. This is a normal outcome for cloudy or poorly revisited periods,
// not a provider fault.
var ErrNoAcquisition = errors.New("no acquisition matched the search window")

// ErrNoUsableData reports that every interval in a run produced a gap.
var ErrNoUsableData = errors.New("no usable acquisitions in the requested range")

// ErrShapeMismatch indicates the two bands and the mask do not share a shape.
// This is a wiring bug in the caller, not a recoverable runtime condition.
var ErrShapeMismatch = errors.New("band and mask shapes do not match")

// ProviderError wraps a failure talking to a remote collaborator (catalog
// search or pixel fetch). The assembler treats it as a per-interval soft
// failure, distinct from ErrNoAcquisition.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider failure during %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
