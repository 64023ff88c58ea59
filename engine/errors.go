package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Result values match VkResult. Backends translate their driver's result
// codes into these.
type Result int32

const (
	ResultSuccess                Result = 0
	ResultNotReady               Result = 1
	ResultTimeout                Result = 2
	ResultIncomplete             Result = 5
	ResultErrorOutOfHostMemory   Result = -1
	ResultErrorOutOfDeviceMemory Result = -2
	ResultErrorInitFailed        Result = -3
	ResultErrorDeviceLost        Result = -4
	ResultErrorUnknown           Result = -13
	ResultErrorSurfaceLost       Result = -1000000000
	ResultSuboptimal             Result = 1000001003
	ResultErrorOutOfDate         Result = -1000001004
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultNotReady:
		return "NotReady"
	case ResultTimeout:
		return "Timeout"
	case ResultIncomplete:
		return "Incomplete"
	case ResultErrorOutOfHostMemory:
		return "ErrorOutOfHostMemory"
	case ResultErrorOutOfDeviceMemory:
		return "ErrorOutOfDeviceMemory"
	case ResultErrorInitFailed:
		return "ErrorInitializationFailed"
	case ResultErrorDeviceLost:
		return "ErrorDeviceLost"
	case ResultErrorUnknown:
		return "ErrorUnknown"
	case ResultErrorSurfaceLost:
		return "ErrorSurfaceLost"
	case ResultSuboptimal:
		return "Suboptimal"
	case ResultErrorOutOfDate:
		return "ErrorOutOfDate"
	}
	return fmt.Sprintf("Result(%d)", int32(r))
}

// Stale reports whether the result says the swapchain no longer matches the
// surface. Stale results are recovered by recreating the swapchain.
func (r Result) Stale() bool {
	return r == ResultSuboptimal || r == ResultErrorOutOfDate
}

var (
	// ErrFatal marks every error the engine cannot recover from. Test for it
	// with IsFatal.
	ErrFatal = errors.New("presentation: fatal error")

	ErrNoSurfaceFormat = errors.New("presentation: surface reports no formats")
	ErrSlotNotObserved = errors.New("presentation: frame slot reused before its fence was observed")
	ErrShutdown        = errors.New("presentation: engine has been shut down")
	ErrInvalidConfig   = errors.New("presentation: invalid configuration")
)

// IsFatal reports whether err carries the ErrFatal mark.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// fatal wraps err with the failing operation and marks it fatal.
func fatal(err error, op string) error {
	if err == nil {
		return nil
	}
	if IsFatal(err) {
		return errors.Wrap(err, op)
	}
	return errors.Mark(errors.Wrap(err, op), ErrFatal)
}

// check sorts the outcome of a backend call. Success and stale results come
// back with a nil error; anything else is fatal.
func check(op string, res Result, err error) (Result, error) {
	if res.Stale() {
		return res, nil
	}
	if err == nil && res == ResultSuccess {
		return res, nil
	}
	if err == nil {
		err = errors.Newf("unexpected result %s", res)
	}
	return res, fatal(err, op)
}
