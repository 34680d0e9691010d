// Package definition loads the device definition: the component and app
// directories, relative to a driver repository, that make up one image.
package definition

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/driverkit/pkg/types"
)

// DefaultMaxAttempts is the install attempt cap used when the file does not
// set one.
const DefaultMaxAttempts = 3

// Definition lists the directories to install, in order.
type Definition struct {
	Drivers []string
	Apps    []string

	// MaxAttempts caps install attempts per unit.
	MaxAttempts int
}

type fileDefinition struct {
	Drivers []string `toml:"drivers"`
	Apps    []string `toml:"apps"`
	Install struct {
		MaxAttempts int `toml:"max_attempts"`
	} `toml:"install"`
}

// Default returns an empty definition with default settings.
func Default() Definition {
	return Definition{MaxAttempts: DefaultMaxAttempts}
}

// Load reads and validates a definition file.
func Load(file string) (Definition, error) {
	var raw fileDefinition
	meta, err := toml.DecodeFile(file, &raw)
	if errors.Is(err, fs.ErrNotExist) {
		return Definition{}, types.Wrap(types.ErrKindMissing, err, "definition %s not found", file)
	}
	if err != nil {
		return Definition{}, types.Wrap(types.ErrKindFormat, err, "load definition %s", file)
	}
	return fromFile(raw, meta)
}

// Parse decodes a definition from TOML text.
func Parse(data string) (Definition, error) {
	var raw fileDefinition
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Definition{}, types.Wrap(types.ErrKindFormat, err, "parse definition")
	}
	return fromFile(raw, meta)
}

func fromFile(raw fileDefinition, meta toml.MetaData) (Definition, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Definition{}, types.Errorf(types.ErrKindInvalid, "unknown definition key %q", undecoded[0].String())
	}

	def := Default()
	def.Drivers = normalize(raw.Drivers)
	def.Apps = normalize(raw.Apps)
	if meta.IsDefined("install", "max_attempts") {
		def.MaxAttempts = raw.Install.MaxAttempts
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// normalize trims entries, drops blanks and switches to the OS separator.
func normalize(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		out = append(out, filepath.FromSlash(strings.ReplaceAll(d, `\`, "/")))
	}
	return out
}

// Validate rejects directories that escape the repository.
func (d Definition) Validate() error {
	if d.MaxAttempts < 1 {
		return types.Errorf(types.ErrKindInvalid, "max_attempts must be at least 1, got %d", d.MaxAttempts)
	}
	for _, dir := range append(append([]string{}, d.Drivers...), d.Apps...) {
		if err := checkRelative(dir); err != nil {
			return err
		}
	}
	return nil
}

func checkRelative(dir string) error {
	slashed := filepath.ToSlash(dir)
	if filepath.IsAbs(dir) || path.IsAbs(slashed) || filepath.VolumeName(dir) != "" || hasDrive(slashed) {
		return types.Errorf(types.ErrKindInvalid, "directory %q must be relative to the repository", dir)
	}
	for _, seg := range strings.Split(slashed, "/") {
		if seg == ".." {
			return types.Errorf(types.ErrKindInvalid, "directory %q leaves the repository", dir)
		}
	}
	return nil
}

// hasDrive catches C:/ style paths on hosts where filepath does not.
func hasDrive(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		(('a' <= p[0] && p[0] <= 'z') || ('A' <= p[0] && p[0] <= 'Z'))
}

// Dirs joins each directory onto repo.
func Dirs(repo string, dirs []string) []string {
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = filepath.Join(repo, d)
	}
	return out
}

func (d Definition) String() string {
	return fmt.Sprintf("%d driver dirs, %d app dirs", len(d.Drivers), len(d.Apps))
}
