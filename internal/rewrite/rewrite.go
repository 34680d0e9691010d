// Package rewrite implements the two per-value policies the crawler runs:
// Paths rewrites stale driver-store references to the current package
// identities, and Leftovers deletes values and keys that point at packages
// which are gone.
package rewrite

import (
	"log/slog"

	"github.com/joshuapare/driverkit/pkg/hive"
)

// Stats counts the changes a policy applied.
type Stats struct {
	ValuesRewritten int
	ValuesDeleted   int
	KeysDeleted     int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.ValuesRewritten += o.ValuesRewritten
	s.ValuesDeleted += o.ValuesDeleted
	s.KeysDeleted += o.KeysDeleted
}

// Changed reports whether anything was modified.
func (s Stats) Changed() bool {
	return s.ValuesRewritten+s.ValuesDeleted+s.KeysDeleted > 0
}

// valuePath names a value for log lines; the default value shows as "@".
func valuePath(k hive.Key, name string) string {
	if name == "" {
		name = "@"
	}
	return hive.JoinPath(k.Path(), name)
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return log
}
