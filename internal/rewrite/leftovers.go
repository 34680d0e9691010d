package rewrite

import (
	"log/slog"

	"github.com/joshuapare/driverkit/internal/crawler"
	"github.com/joshuapare/driverkit/internal/patterns"
	"github.com/joshuapare/driverkit/pkg/hive"
	"github.com/joshuapare/driverkit/pkg/types"
)

// Leftovers deletes values and keys that reference removed packages.
//
// Names are checked before content: a value whose name is an orphan is
// deleted unread, and a subkey whose name is an orphan is deleted with its
// subtree and never walked.
type Leftovers struct {
	Set *patterns.Set
	Log *slog.Logger

	Stats Stats
}

// NewLeftovers returns a Leftovers policy over set.
func NewLeftovers(set *patterns.Set, log *slog.Logger) *Leftovers {
	return &Leftovers{Set: set, Log: orDiscard(log)}
}

// KeyAction implements crawler.Policy.
func (l *Leftovers) KeyAction(parent hive.Key, name string) crawler.Action {
	if l.Set.IsOrphan(name) {
		return crawler.Delete
	}
	return crawler.Descend
}

// KeyDeleted implements crawler.KeyDeleteObserver.
func (l *Leftovers) KeyDeleted(parent hive.Key, name string) {
	l.Stats.KeysDeleted++
	l.Log.Info("deleted key", "key", hive.JoinPath(parent.Path(), name))
}

// VisitValue implements crawler.Policy.
func (l *Leftovers) VisitValue(k hive.Key, name string) error {
	if l.Set.IsOrphan(name) {
		return l.delete(k, name, name)
	}

	v, err := k.Value(name)
	if err != nil {
		return err
	}

	switch {
	case v.Type.IsText():
		if m, ok := l.Set.OrphanMatch(v.Text); ok {
			return l.delete(k, name, m)
		}
		return nil

	case v.Type == types.REG_MULTI_SZ:
		kept := make([]string, 0, len(v.Multi))
		for _, s := range v.Multi {
			if m, ok := l.Set.OrphanMatch(s); ok {
				l.Log.Info("dropped element", "match", m, "value", valuePath(k, name))
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == len(v.Multi) {
			return nil
		}
		if allEmpty(kept) {
			return l.delete(k, name, "")
		}
		v.Multi = kept
		if err := k.SetValue(v); err != nil {
			return err
		}
		l.Stats.ValuesRewritten++
		return nil
	}
	return nil
}

func (l *Leftovers) delete(k hive.Key, name, match string) error {
	if err := k.DeleteValue(name); err != nil {
		return err
	}
	l.Stats.ValuesDeleted++
	l.Log.Info("deleted value", "match", match, "value", valuePath(k, name))
	return nil
}

// allEmpty reports whether nothing but empty strings is left; such a list
// stores the same bytes as an empty one.
func allEmpty(elems []string) bool {
	for _, e := range elems {
		if e != "" {
			return false
		}
	}
	return true
}
