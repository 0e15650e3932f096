package imagefile

import (
	"errors"
	"fmt"
)

// ErrNotMeasured is returned by staging calls that need stats before
// Measure has run.
var ErrNotMeasured = errors.New("image has not been measured")

// MeasurementError reports a file that could not be read or parsed as an
// image with non-zero dimensions.
type MeasurementError struct {
	Path string
	Err  error
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("measuring %s: %v", e.Path, e.Err)
}

func (e *MeasurementError) Unwrap() error { return e.Err }

// CommitError reports a failed step of the replace protocol. Op names the
// step: "read", "encode", "write temp", "rename", "remove original" or
// "measure".
type CommitError struct {
	Path string
	Op   string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("committing %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
