package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/babariviere/unibot/pkg/failure"
	"github.com/babariviere/unibot/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeError is a ClassifiedError with a controllable retryable flag.
type fakeError struct {
	retryable bool
}

func (e *fakeError) Error() string { return "fake error" }

func (e *fakeError) Severity() failure.Severity {
	if e.retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *fakeError) IsRetryable() bool { return e.retryable }

// countingSleeper records sleeps instead of performing them.
type countingSleeper struct {
	calls []time.Duration
}

func (s *countingSleeper) Sleep(d time.Duration) {
	s.calls = append(s.calls, d)
}

func testParam(maxAttempts int) RetryParam {
	return NewRetryParam(
		0,
		0,
		1,
		maxAttempts,
		timeutil.NewBackoffParam(time.Millisecond, 2.0, 10*time.Millisecond),
	)
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	sleeper := &countingSleeper{}
	calls := 0

	got, err := Retry(testParam(3), sleeper, func() (string, failure.ClassifiedError) {
		calls++
		return "ok", nil
	})

	require.Nil(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.calls)
}

func TestRetrySucceedsAfterRetryableFailures(t *testing.T) {
	sleeper := &countingSleeper{}
	calls := 0

	got, err := Retry(testParam(5), sleeper, func() (int, failure.ClassifiedError) {
		calls++
		if calls < 3 {
			return 0, &fakeError{retryable: true}
		}
		return 42, nil
	})

	require.Nil(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeper.calls, 2)
}

func TestRetryStopsOnFatalError(t *testing.T) {
	sleeper := &countingSleeper{}
	calls := 0

	_, err := Retry(testParam(5), sleeper, func() (int, failure.ClassifiedError) {
		calls++
		return 0, &fakeError{retryable: false}
	})

	require.NotNil(t, err)
	assert.Equal(t, 1, calls)
	var fake *fakeError
	assert.True(t, errors.As(err, &fake))
}

func TestRetryExhaustsAttempts(t *testing.T) {
	sleeper := &countingSleeper{}
	calls := 0

	_, err := Retry(testParam(3), sleeper, func() (int, failure.ClassifiedError) {
		calls++
		return 0, &fakeError{retryable: true}
	})

	require.NotNil(t, err)
	assert.Equal(t, 3, calls)

	var retryErr *RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, RetryErrorCause(ErrExhaustedAttempts), retryErr.Cause)
}

func TestRetryZeroAttempts(t *testing.T) {
	sleeper := &countingSleeper{}

	_, err := Retry(testParam(0), sleeper, func() (int, failure.ClassifiedError) {
		t.Fatal("fn must not be called")
		return 0, nil
	})

	var retryErr *RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, RetryErrorCause(ErrZeroAttempt), retryErr.Cause)
}
