package install

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cenkalti/backoff/v5"

	"github.com/joshuapare/driverkit/internal/logger"
	"github.com/joshuapare/driverkit/pkg/types"
)

// DefaultMaxAttempts is the per-unit attempt cap.
const DefaultMaxAttempts = 3

// RetryPolicy bounds attempts per unit.
type RetryPolicy struct {
	MaxAttempts int
	Classifier  Classifier
}

// DefaultRetryPolicy allows three attempts and exempts BenignStatus.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Classifier: DefaultClassifier()}
}

// Attempt performs one install call.
type Attempt func(ctx context.Context) types.Status

// Result describes how a unit finished.
type Result struct {
	Status   types.Status
	Attempts int
}

// Do runs attempt until it returns a non-failing status or the cap is
// reached. Exhaustion yields a *UnitError carrying the last status.
func (p RetryPolicy) Do(ctx context.Context, log *slog.Logger, unit Unit, attempt Attempt) (Result, error) {
	if log == nil {
		log = logger.L
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var res Result
	op := func() (types.Status, error) {
		res.Attempts++
		status := attempt(ctx)
		res.Status = status
		if p.Classifier.Failed(status) {
			log.Warn("install attempt failed",
				"unit", unit.Path, "kind", unit.Kind.String(),
				"attempt", res.Attempts, "max", maxAttempts, "status", status.String())
			return status, &statusError{status: status}
		}
		if status != types.StatusSuccess {
			log.Info("ignoring benign status", "unit", unit.Path, "status", status.String())
		}
		return status, nil
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return res, nil
	}
	var se *statusError
	if errors.As(err, &se) {
		return res, &UnitError{Unit: unit, Status: res.Status, Attempts: res.Attempts}
	}
	return res, err
}
