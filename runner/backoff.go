package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// This is here just to make sure we can not really sleep during tests.
var sleepFunc = sleepWithContext

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// permanent marks err as not worth retrying.
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// withBackoff calls fn until it succeeds, returns a permanent error, maxTries
// is reached or ctx is done while waiting. The last error from fn is returned.
func withBackoff(ctx context.Context, log *zap.Logger, operationName string, maxTries int, fn func() error) error {
	backoff := 1
	var err error
	for i := 0; i < maxTries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if i == maxTries-1 {
			break
		}
		toWait := time.Duration(backoff) * time.Second
		log.Info("Backing off "+operationName, zap.Duration("delay", toWait), zap.String("attempt", fmt.Sprintf("%d/%d", i+1, maxTries)), zap.Error(err))
		if sleepErr := sleepFunc(ctx, toWait); sleepErr != nil {
			log.Info("Giving up "+operationName, zap.Error(sleepErr))
			break
		}
		backoff *= 2
	}

	return err
}
