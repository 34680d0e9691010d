package hive

import (
	"path/filepath"
	"strings"

	"github.com/joshuapare/driverkit/pkg/types"
)

// PathSeparator separates key names in a registry path.
const PathSeparator = `\`

// Key is one node of a hive.
type Key interface {
	// Name is the key's own name ("" for a hive root).
	Name() string

	// Path is the backslash-joined path from the hive root.
	Path() string

	// SubkeyNames returns a snapshot of the child key names.
	SubkeyNames() ([]string, error)

	// OpenSubkey opens a direct child by case-insensitive name.
	OpenSubkey(name string) (Key, error)

	// ValueNames returns a snapshot of the value names. "" is the default value.
	ValueNames() ([]string, error)

	// Value reads and decodes one value.
	Value(name string) (Value, error)

	// SetValue creates or replaces the value named v.Name.
	SetValue(v Value) error

	// DeleteValue removes one value. "" removes the default value.
	DeleteValue(name string) error

	// DeleteSubtree removes a child key and everything below it.
	DeleteSubtree(name string) error
}

// Hive is an opened, writable hive.
type Hive interface {
	Root() Key

	// Close persists pending changes and releases the backing file.
	Close() error
}

// Opener opens a hive file read-write.
type Opener interface {
	Open(path string) (Hive, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Hive, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Hive, error) { return f(path) }

// Value is a decoded registry value.
type Value struct {
	Name  string
	Type  RegType
	Text  string   // REG_SZ, REG_EXPAND_SZ
	Multi []string // REG_MULTI_SZ
	Data  []byte   // every other kind, raw
}

// TextValue builds a REG_SZ or REG_EXPAND_SZ value.
func TextValue(name string, typ RegType, s string) Value {
	return Value{Name: name, Type: typ, Text: s}
}

// MultiValue builds a REG_MULTI_SZ value.
func MultiValue(name string, values []string) Value {
	return Value{Name: name, Type: REG_MULTI_SZ, Multi: values}
}

// JoinPath joins a parent key path and a child name.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}

// SplitPath splits a registry path into segments, ignoring empty ones.
func SplitPath(path string) []string {
	parts := strings.Split(path, PathSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// OpenPath walks from k down a backslash-separated path.
func OpenPath(k Key, path string) (Key, error) {
	cur := k
	for _, seg := range SplitPath(path) {
		next, err := cur.OpenSubkey(seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// NotFound builds the error returned for a missing key or value.
func NotFound(path, name string) error {
	return types.Errorf(types.ErrKindNotFound, "%s not found", JoinPath(path, name))
}

// Offline image locations of the two hives the engine reconciles.
var (
	systemHive   = []string{"Windows", "System32", "config", "SYSTEM"}
	softwareHive = []string{"Windows", "System32", "config", "SOFTWARE"}
)

// SystemHivePath returns Windows\System32\config\SYSTEM under imageRoot.
func SystemHivePath(imageRoot string) string {
	return filepath.Join(append([]string{imageRoot}, systemHive...)...)
}

// SoftwareHivePath returns Windows\System32\config\SOFTWARE under imageRoot.
func SoftwareHivePath(imageRoot string) string {
	return filepath.Join(append([]string{imageRoot}, softwareHive...)...)
}
