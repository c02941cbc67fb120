package frontier

import (
	"fmt"

	"github.com/babariviere/unibot/pkg/failure"
)

type FrontierErrorCause string

const (
	// ErrCauseQueueEmpty: dequeue on an empty frontier. The worker loop
	// exits on this signal.
	ErrCauseQueueEmpty FrontierErrorCause = "queue has no item in it"
)

type FrontierError struct {
	Message string
	Cause   FrontierErrorCause
}

func (e *FrontierError) Error() string {
	return fmt.Sprintf("frontier error: %s", e.Cause)
}

func (e *FrontierError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// Is allows errors.Is to match FrontierError by cause.
func (e *FrontierError) Is(target error) bool {
	t, ok := target.(*FrontierError)
	return ok && t.Cause == e.Cause
}
