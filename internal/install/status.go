package install

import (
	"fmt"
	"slices"

	"github.com/joshuapare/driverkit/pkg/types"
)

// BenignStatus is reported by the servicing stack for a known quirk that
// does not reflect on the unit being installed.
const BenignStatus types.Status = 0xC1570118

// Classifier decides which statuses count as failures.
type Classifier struct {
	// Benign statuses are successes even with the failure bit set.
	Benign []types.Status
}

// DefaultClassifier exempts BenignStatus.
func DefaultClassifier() Classifier {
	return Classifier{Benign: []types.Status{BenignStatus}}
}

// Failed reports whether s has the failure bit set and is not benign.
func (c Classifier) Failed(s types.Status) bool {
	return s.IsFailure() && !slices.Contains(c.Benign, s)
}

// UnitError is returned when a unit exhausted its attempts.
type UnitError struct {
	Unit     Unit
	Status   types.Status
	Attempts int
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("install %s %s failed with status %s after %d attempts",
		e.Unit.Kind, e.Unit.Path, e.Status, e.Attempts)
}

// Unwrap lets errors.Is match types.ErrInstall.
func (e *UnitError) Unwrap() error { return types.ErrInstall }

// statusError carries a failing status out of a single attempt.
type statusError struct {
	status types.Status
}

func (e *statusError) Error() string { return "status " + e.status.String() }
