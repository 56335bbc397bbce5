package mapview

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrLockPoisoned  = errors.New("lock poisoned")
	ErrAlreadyJoined = errors.New("worker already joined")
)

// AllocationError reports a failed surface, target or renderer construction. The attempted configuration is lost,
// but the caller may retry with different parameters (a smaller size, for example).
//
type AllocationError struct {
	Op  string
	Err error
}

func (self *AllocationError) Error() string {
	return fmt.Sprintf("allocation failed [%s] (%v)", self.Op, self.Err)
}

func (self *AllocationError) Unwrap() error {
	return self.Err
}

func newAllocationError(op string, err error) error {
	return &AllocationError{Op: op, Err: err}
}

// RenderError reports a failed engine call. It terminates the worker.
//
type RenderError struct {
	Slot int
	Err  error
}

func (self *RenderError) Error() string {
	return fmt.Sprintf("render failed for slot [%d] (%v)", self.Slot, self.Err)
}

func (self *RenderError) Unwrap() error {
	return self.Err
}

func IsAllocationError(err error) bool {
	var ae *AllocationError
	return errors.As(err, &ae)
}

func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}
