package indexer

import (
	"fmt"

	"github.com/babariviere/unibot/pkg/failure"
)

type IndexErrorCause string

const (
	// ErrCauseAlreadyIndexed: the URL is already recorded on some site.
	// A benign control signal, not a failure.
	ErrCauseAlreadyIndexed IndexErrorCause = "url already indexed"
	// ErrCauseSpiderTrap: the URL's site is (or just became) trap-flagged.
	// Also benign; the worker skips the page.
	ErrCauseSpiderTrap IndexErrorCause = "spider trap"
)

type IndexError struct {
	Message string
	Cause   IndexErrorCause
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("indexer error: %s", e.Cause)
}

// Both causes are control signals the worker loop consumes.
func (e *IndexError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// Is allows errors.Is to match IndexError by cause.
func (e *IndexError) Is(target error) bool {
	t, ok := target.(*IndexError)
	return ok && t.Cause == e.Cause
}
