package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joshuapare/driverkit/internal/definition"
	"github.com/joshuapare/driverkit/internal/logger"
	"github.com/joshuapare/driverkit/pkg/types"
)

// Servicer performs install calls against an offline image. Every call
// reports the servicing status code.
type Servicer interface {
	AddDriver(ctx context.Context, path string) types.Status
	AddPackage(ctx context.Context, path, license string) types.Status
	InstalledDrivers(ctx context.Context) ([]string, types.Status)
}

// Progress receives batch and unit notifications.
type Progress interface {
	StartBatch(name string, total int)
	Unit(path string)
	EndBatch()
}

type noProgress struct{}

func (noProgress) StartBatch(string, int) {}
func (noProgress) Unit(string)            {}
func (noProgress) EndBatch()              {}

// Orchestrator installs a definition into an image.
type Orchestrator struct {
	Servicer Servicer
	Layout   Layout
	Policy   RetryPolicy
	Progress Progress
	Log      *slog.Logger
}

// New returns an orchestrator with the default layout and retry policy.
func New(s Servicer) *Orchestrator {
	return &Orchestrator{
		Servicer: s,
		Layout:   DirLayout{},
		Policy:   DefaultRetryPolicy(),
		Progress: noProgress{},
		Log:      logger.L,
	}
}

// Summary reports what a run installed.
type Summary struct {
	Installed map[Kind]int
	// Retried counts extra attempts across all units.
	Retried int
	// Published lists the image's third-party driver names after batch 1.
	Published []string
}

// CheckPrerequisites verifies every definition directory exists in repo.
func CheckPrerequisites(repo string, def definition.Definition) error {
	var missing []error
	for _, dir := range append(append([]string{}, def.Drivers...), def.Apps...) {
		full := filepath.Join(repo, dir)
		info, err := os.Stat(full)
		if err != nil || !info.IsDir() {
			missing = append(missing, types.Errorf(types.ErrKindMissing, "directory %s does not exist", full))
		}
	}
	return errors.Join(missing...)
}

// Plan enumerates the three batches for def without touching the image.
func (o *Orchestrator) Plan(repo string, def definition.Definition) ([]Batch, error) {
	drivers := Batch{Kind: KindDriver}
	frameworks := Batch{Kind: KindFramework}
	apps := Batch{Kind: KindApp}

	for _, dir := range definition.Dirs(repo, def.Drivers) {
		infs, err := o.Layout.DriverDefinitions(dir)
		if err != nil {
			return nil, fmt.Errorf("list drivers in %s: %w", dir, err)
		}
		for _, inf := range infs {
			drivers.Units = append(drivers.Units, Unit{Kind: KindDriver, Path: inf})
		}
	}

	for _, dir := range definition.Dirs(repo, def.Apps) {
		pkgs, err := o.Layout.Packages(dir)
		if err != nil {
			return nil, fmt.Errorf("list packages in %s: %w", dir, err)
		}
		for _, pkg := range pkgs {
			license, _ := o.Layout.License(pkg)
			if o.Layout.IsFramework(pkg) {
				frameworks.Units = append(frameworks.Units, Unit{Kind: KindFramework, Path: pkg, License: license})
			} else {
				apps.Units = append(apps.Units, Unit{Kind: KindApp, Path: pkg, License: license})
			}
		}
	}
	return []Batch{drivers, frameworks, apps}, nil
}

// Run checks prerequisites, plans the batches and installs them in order.
// The first unit that exhausts its attempts stops the run with a
// *UnitError.
func (o *Orchestrator) Run(ctx context.Context, repo string, def definition.Definition) (Summary, error) {
	sum := Summary{Installed: map[Kind]int{}}

	if err := CheckPrerequisites(repo, def); err != nil {
		return sum, err
	}
	batches, err := o.Plan(repo, def)
	if err != nil {
		return sum, err
	}

	policy := o.Policy
	if def.MaxAttempts > 0 {
		policy.MaxAttempts = def.MaxAttempts
	}

	for _, b := range batches {
		if err := o.runBatch(ctx, policy, b, &sum); err != nil {
			return sum, err
		}
		if b.Kind == KindDriver && len(b.Units) > 0 {
			sum.Published = o.published(ctx)
		}
	}
	return sum, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, policy RetryPolicy, b Batch, sum *Summary) error {
	o.Progress.StartBatch(b.Kind.String()+"s", len(b.Units))
	defer o.Progress.EndBatch()

	o.Log.Info("installing batch", "kind", b.Kind.String(), "units", len(b.Units))
	for _, u := range b.Units {
		o.Progress.Unit(u.Path)
		res, err := policy.Do(ctx, o.Log, u, o.attempt(u))
		if res.Attempts > 1 {
			sum.Retried += res.Attempts - 1
		}
		if err != nil {
			o.Log.Error("install failed", "unit", u.Path, "kind", u.Kind.String(), "error", err)
			return err
		}
		sum.Installed[u.Kind]++
		o.Log.Debug("installed", "unit", u.Path, "attempts", res.Attempts)
	}
	return nil
}

func (o *Orchestrator) attempt(u Unit) Attempt {
	if u.Kind == KindDriver {
		return func(ctx context.Context) types.Status {
			return o.Servicer.AddDriver(ctx, u.Path)
		}
	}
	return func(ctx context.Context) types.Status {
		return o.Servicer.AddPackage(ctx, u.Path, u.License)
	}
}

func (o *Orchestrator) published(ctx context.Context) []string {
	names, status := o.Servicer.InstalledDrivers(ctx)
	if status.IsFailure() {
		o.Log.Warn("listing installed drivers failed", "status", status.String())
		return nil
	}
	o.Log.Info("third-party drivers in image", "count", len(names))
	return names
}
