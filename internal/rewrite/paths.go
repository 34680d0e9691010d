package rewrite

import (
	"log/slog"

	"github.com/joshuapare/driverkit/internal/crawler"
	"github.com/joshuapare/driverkit/internal/patterns"
	"github.com/joshuapare/driverkit/pkg/hive"
	"github.com/joshuapare/driverkit/pkg/types"
)

// Paths rewrites references to any hash variant of an installed package so
// they name the package's current identity.
type Paths struct {
	Set *patterns.Set
	Log *slog.Logger

	Stats Stats
}

// NewPaths returns a Paths policy over set.
func NewPaths(set *patterns.Set, log *slog.Logger) *Paths {
	return &Paths{Set: set, Log: orDiscard(log)}
}

// KeyAction implements crawler.Policy. Every key is walked.
func (p *Paths) KeyAction(hive.Key, string) crawler.Action {
	return crawler.Descend
}

// VisitValue implements crawler.Policy.
func (p *Paths) VisitValue(k hive.Key, name string) error {
	v, err := k.Value(name)
	if err != nil {
		return err
	}

	switch {
	case v.Type.IsText():
		out, changed := p.Rewrite(v.Text, k, name)
		if !changed {
			return nil
		}
		v.Text = out

	case v.Type == types.REG_MULTI_SZ:
		updated := false
		elems := make([]string, len(v.Multi))
		for i, s := range v.Multi {
			out, changed := p.Rewrite(s, k, name)
			elems[i] = out
			updated = updated || changed
		}
		if !updated {
			return nil
		}
		v.Multi = elems

	default:
		return nil
	}

	if err := k.SetValue(v); err != nil {
		return err
	}
	p.Stats.ValuesRewritten++
	return nil
}

// Rewrite applies the first identity pattern with a reference in s that
// differs from its canonical identity, replacing every reference with the
// stale text. References to the current identity do not stop the scan.
// k and name only label the log line and may be nil/empty.
func (p *Paths) Rewrite(s string, k hive.Key, name string) (string, bool) {
	for _, ip := range p.Set.Identities {
		stale, ok := ip.FindStale(s)
		if !ok {
			continue
		}
		if k != nil {
			p.Log.Info("updated reference", "from", stale, "to", ip.Identity, "value", valuePath(k, name))
		}
		return ip.Replace(s, stale, ip.Identity), true
	}
	return s, false
}
