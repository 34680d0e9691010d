// Package dism services an offline Windows image with dism.exe.
package dism

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/joshuapare/driverkit/internal/logger"
	"github.com/joshuapare/driverkit/pkg/types"
)

// StatusLaunchFailed is reported when dism.exe could not be started
// (E_FAIL).
const StatusLaunchFailed types.Status = 0x80004005

// Runner executes a command and returns its standard output and exit code.
// A non-nil error means the process did not run to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (out []byte, exitCode int, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run starts the command and waits for it.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return stdout.Bytes(), -1, err
	}
	return stdout.Bytes(), 0, nil
}

// Servicer adds drivers and packages to the image mounted at Image.
type Servicer struct {
	Image  string
	Binary string
	Runner Runner
	Log    *slog.Logger
}

// New returns a servicer for the image at root using dism.exe from PATH.
func New(root string) *Servicer {
	return &Servicer{Image: root, Binary: "dism.exe", Runner: ExecRunner{}, Log: logger.L}
}

// imageArg names the offline image. The path keeps a trailing backslash.
func (s *Servicer) imageArg() string {
	img := s.Image
	if !strings.HasSuffix(img, `\`) {
		img += `\`
	}
	return "/Image:" + img
}

func (s *Servicer) run(ctx context.Context, args ...string) ([]byte, types.Status) {
	full := append([]string{s.imageArg(), "/English"}, args...)
	log := s.Log
	if log == nil {
		log = logger.L
	}
	log.Debug("running dism", "args", strings.Join(full, " "))

	out, code, err := s.Runner.Run(ctx, s.Binary, full...)
	if err != nil {
		log.Error("dism did not run", "error", err)
		return out, StatusLaunchFailed
	}
	status := types.Status(uint32(code))
	if status != types.StatusSuccess {
		log.Debug("dism returned", "status", status.String())
	}
	return out, status
}

// AddDriver installs one driver package.
func (s *Servicer) AddDriver(ctx context.Context, path string) types.Status {
	_, status := s.run(ctx, "/Add-Driver", "/Driver:"+path)
	return status
}

// AddPackage provisions an app package, with its license if one is given.
func (s *Servicer) AddPackage(ctx context.Context, path, license string) types.Status {
	args := []string{"/Add-ProvisionedAppxPackage", "/PackagePath:" + path}
	if license != "" {
		args = append(args, "/LicensePath:"+license)
	} else {
		args = append(args, "/SkipLicense")
	}
	_, status := s.run(ctx, args...)
	return status
}

// InstalledDrivers lists the published names of third-party drivers.
func (s *Servicer) InstalledDrivers(ctx context.Context) ([]string, types.Status) {
	out, status := s.run(ctx, "/Get-Drivers")
	if status.IsFailure() {
		return nil, status
	}
	return ParsePublishedNames(out), status
}

// ParsePublishedNames extracts "Published Name : oemN.inf" entries.
func ParsePublishedNames(out []byte) []string {
	var names []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "Published Name") {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			names = append(names, v)
		}
	}
	return names
}
