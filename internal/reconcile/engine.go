// Package reconcile runs the registry repair passes over an offline image's
// SYSTEM and SOFTWARE hives.
//
// Each pass opens both hives, crawls them with one policy and closes them on
// every exit path. Passes are not transactional: changes applied before a
// failure stay applied. Failures are reported as false, with the cause
// logged.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joshuapare/driverkit/internal/crawler"
	"github.com/joshuapare/driverkit/internal/logger"
	"github.com/joshuapare/driverkit/internal/patterns"
	"github.com/joshuapare/driverkit/internal/rewrite"
	"github.com/joshuapare/driverkit/pkg/hive"
)

// HardwareConfigKey is cleared by ResealFirstBoot.
const HardwareConfigKey = "HardwareConfig"

// driverStore is the folder whose sub-directories are the installed
// package identities.
var driverStore = []string{"Windows", "System32", "DriverStore", "FileRepository"}

// Engine reconciles the hives of one offline image.
type Engine struct {
	Opener    hive.Opener
	ImageRoot string
	Log       *slog.Logger

	// Patterns customizes the set used by RemoveLeftovers. Nil uses the
	// built-in orphan rules.
	Patterns *patterns.Set
}

// New returns an engine for the image mounted at imageRoot.
func New(opener hive.Opener, imageRoot string, log *slog.Logger) *Engine {
	if log == nil {
		log = logger.L
	}
	return &Engine{Opener: opener, ImageRoot: imageRoot, Log: log}
}

type target struct {
	label string
	path  string
}

func (e *Engine) targets() []target {
	return []target{
		{"SYSTEM", hive.SystemHivePath(e.ImageRoot)},
		{"SOFTWARE", hive.SoftwareHivePath(e.ImageRoot)},
	}
}

// ReconcilePaths rewrites every reference to a hash variant of an installed
// package so it names the identity listed in identities.
func (e *Engine) ReconcilePaths(ctx context.Context, identities []string) (rewrite.Stats, bool) {
	set := patterns.New(e.Log, identities...)
	total, err := e.run(ctx, func(label string) (crawler.Policy, *rewrite.Stats) {
		p := rewrite.NewPaths(set, e.Log.With("hive", label))
		return p, &p.Stats
	})
	if err != nil {
		e.Log.Error("reconciling driver store paths failed", "error", err)
		return total, false
	}
	e.Log.Info("driver store paths reconciled", "rewritten", total.ValuesRewritten)
	return total, true
}

// RemoveLeftovers deletes values and keys that reference packages no longer
// present, as decided by the orphan rules.
func (e *Engine) RemoveLeftovers(ctx context.Context) (rewrite.Stats, bool) {
	set := e.Patterns
	if set == nil {
		set = patterns.New(e.Log)
	}
	total, err := e.run(ctx, func(label string) (crawler.Policy, *rewrite.Stats) {
		l := rewrite.NewLeftovers(set, e.Log.With("hive", label))
		return l, &l.Stats
	})
	if err != nil {
		e.Log.Error("removing leftovers failed", "error", err)
		return total, false
	}
	e.Log.Info("leftovers removed",
		"values_deleted", total.ValuesDeleted,
		"values_rewritten", total.ValuesRewritten,
		"keys_deleted", total.KeysDeleted)
	return total, true
}

// FixRegistryPaths reads the installed identities from the image's driver
// store and reconciles the hives against them.
func (e *Engine) FixRegistryPaths(ctx context.Context) (rewrite.Stats, bool) {
	ids, err := CurrentIdentities(e.ImageRoot)
	if err != nil {
		e.Log.Error("reading driver store failed", "error", err)
		return rewrite.Stats{}, false
	}
	e.Log.Info("driver store scanned", "packages", len(ids))
	return e.ReconcilePaths(ctx, ids)
}

// run crawls both hives in order with a fresh policy per hive and sums the
// changes, including those made before a failure.
func (e *Engine) run(ctx context.Context, policy func(label string) (crawler.Policy, *rewrite.Stats)) (rewrite.Stats, error) {
	var total rewrite.Stats
	for _, t := range e.targets() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		e.Log.Info("processing hive", "hive", t.label, "path", t.path)
		p, stats := policy(t.label)
		err := e.withHive(t.path, func(root hive.Key) error {
			return crawler.Walk(root, p)
		})
		total.Add(*stats)
		if err != nil {
			return total, fmt.Errorf("%s hive: %w", t.label, err)
		}
	}
	return total, nil
}

// withHive opens path, runs fn on its root and always closes the hive. A
// close error is joined onto fn's error.
func (e *Engine) withHive(path string, fn func(root hive.Key) error) (err error) {
	h, err := e.Opener.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", path, cerr))
		}
	}()
	return fn(h.Root())
}

// ResealFirstBoot empties SYSTEM\HardwareConfig so the image runs the PnP
// first-boot experience again. It reports whether the key existed.
func (e *Engine) ResealFirstBoot(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	found := false
	err := e.withHive(hive.SystemHivePath(e.ImageRoot), func(root hive.Key) error {
		hw, err := root.OpenSubkey(HardwareConfigKey)
		if err != nil {
			if errors.Is(err, hive.ErrNotFound) {
				return nil
			}
			return err
		}
		found = true
		e.Log.Info("resealing image to PnP first boot")

		subkeys, err := hw.SubkeyNames()
		if err != nil {
			return err
		}
		for _, name := range subkeys {
			if err := hw.DeleteSubtree(name); err != nil {
				return err
			}
		}
		values, err := hw.ValueNames()
		if err != nil {
			return err
		}
		for _, name := range values {
			if err := hw.DeleteValue(name); err != nil {
				return err
			}
		}
		return nil
	})
	return found, err
}

// CurrentIdentities lists the driver-store folders of the image that hold at
// least one catalog (.cat) file, sorted by name.
func CurrentIdentities(imageRoot string) ([]string, error) {
	dir := filepath.Join(append([]string{imageRoot}, driverStore...)...)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read driver store: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read driver store folder %s: %w", entry.Name(), err)
		}
		for _, f := range files {
			if !f.IsDir() && strings.EqualFold(filepath.Ext(f.Name()), ".cat") {
				ids = append(ids, entry.Name())
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}
