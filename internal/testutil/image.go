// Package testutil lays out offline Windows images for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/driverkit/pkg/hive"
)

// RegHeader starts every .reg hive written by these helpers.
const RegHeader = "Windows Registry Editor Version 5.00\r\n\r\n"

// WriteFile creates path and its parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// NewImage creates an image root in a temp directory with .reg backed
// SYSTEM and SOFTWARE hives. system and software are appended after each
// hive's root section.
//
// Example:
//
//	root := testutil.NewImage(t, "[HKEY_LOCAL_MACHINE\\SYSTEM\\Setup]\r\n", "")
func NewImage(t *testing.T, system, software string) string {
	t.Helper()
	root := t.TempDir()
	WriteFile(t, hive.SystemHivePath(root), RegHeader+"[HKEY_LOCAL_MACHINE\\SYSTEM]\r\n\r\n"+system)
	WriteFile(t, hive.SoftwareHivePath(root), RegHeader+"[HKEY_LOCAL_MACHINE\\SOFTWARE]\r\n\r\n"+software)
	return root
}

// AddPackage places a driver store folder named identity, holding a catalog,
// into the image.
func AddPackage(t *testing.T, root, identity string) {
	t.Helper()
	WriteFile(t, filepath.Join(root, "Windows", "System32", "DriverStore", "FileRepository",
		identity, "package.cat"), "")
}
