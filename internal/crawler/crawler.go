// Package crawler walks a hive key tree and hands every value and subkey to
// a Policy.
//
// The walk is recursive and synchronous. At each key it snapshots the value
// names, visits them, then snapshots the subkey names and asks the policy
// whether to descend into or delete each one. Deleting while iterating is
// safe because only the snapshots are iterated. Sibling order is whatever the
// store reports; no policy depends on it.
package crawler

import (
	"errors"
	"fmt"

	"github.com/joshuapare/driverkit/pkg/hive"
	"github.com/joshuapare/driverkit/pkg/types"
)

// Action is the policy's decision for one subkey.
type Action int

const (
	// Descend walks into the subkey.
	Descend Action = iota
	// Delete removes the subkey and its whole subtree without walking it.
	Delete
	// Skip leaves the subkey untouched and does not walk it.
	Skip
)

// Policy decides what happens to values and subkeys during a walk.
type Policy interface {
	// KeyAction is called once per subkey of parent before any descent.
	KeyAction(parent hive.Key, name string) Action

	// VisitValue inspects and possibly rewrites or deletes one value of k.
	VisitValue(k hive.Key, name string) error
}

// KeyDeleteObserver is implemented by policies that want to hear about
// subtree deletions performed on their behalf.
type KeyDeleteObserver interface {
	KeyDeleted(parent hive.Key, name string)
}

// Walk applies p to every value under k and recurses into its subkeys.
// The first error stops the walk; changes made before it stay applied.
func Walk(k hive.Key, p Policy) error {
	valueNames, err := k.ValueNames()
	if err != nil {
		return fmt.Errorf("list values of %q: %w", k.Path(), err)
	}
	for _, name := range valueNames {
		if err := p.VisitValue(k, name); err != nil {
			// A value removed earlier in this pass is not an error.
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			return fmt.Errorf("value %q: %w", hive.JoinPath(k.Path(), name), err)
		}
	}

	subkeys, err := k.SubkeyNames()
	if err != nil {
		return fmt.Errorf("list subkeys of %q: %w", k.Path(), err)
	}
	for _, name := range subkeys {
		switch p.KeyAction(k, name) {
		case Skip:
			continue
		case Delete:
			if err := k.DeleteSubtree(name); err != nil {
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				return fmt.Errorf("delete key %q: %w", hive.JoinPath(k.Path(), name), err)
			}
			if o, ok := p.(KeyDeleteObserver); ok {
				o.KeyDeleted(k, name)
			}
		default:
			child, err := k.OpenSubkey(name)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				return fmt.Errorf("open key %q: %w", hive.JoinPath(k.Path(), name), err)
			}
			if err := Walk(child, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Funcs adapts plain functions to Policy. A nil OnKey descends everywhere.
type Funcs struct {
	OnKey   func(parent hive.Key, name string) Action
	OnValue func(k hive.Key, name string) error
}

// KeyAction implements Policy.
func (f Funcs) KeyAction(parent hive.Key, name string) Action {
	if f.OnKey == nil {
		return Descend
	}
	return f.OnKey(parent, name)
}

// VisitValue implements Policy.
func (f Funcs) VisitValue(k hive.Key, name string) error {
	if f.OnValue == nil {
		return nil
	}
	return f.OnValue(k, name)
}
