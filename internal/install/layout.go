package install

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Recognized file extensions, compared case-insensitively.
const (
	DriverExt  = ".inf"
	LicenseExt = ".xml"
)

// PackageExts are the app package formats.
var PackageExts = []string{".appx", ".msix", ".appxbundle", ".msixbundle"}

// FrameworksDir is the directory name that marks framework packages.
const FrameworksDir = "Frameworks"

// Layout enumerates installable files in a repository directory.
type Layout interface {
	DriverDefinitions(dir string) ([]string, error)
	Packages(dir string) ([]string, error)
	License(pkg string) (string, bool)
	IsFramework(pkg string) bool
}

// DirLayout reads the repository from the local filesystem.
type DirLayout struct{}

// DriverDefinitions returns every .inf file under dir, sorted.
func (DirLayout) DriverDefinitions(dir string) ([]string, error) {
	return findFiles(dir, func(ext string) bool { return ext == DriverExt })
}

// Packages returns every app package under dir, sorted.
func (DirLayout) Packages(dir string) ([]string, error) {
	return findFiles(dir, func(ext string) bool { return slices.Contains(PackageExts, ext) })
}

// License returns the .xml file with the same stem as pkg if it exists.
func (DirLayout) License(pkg string) (string, bool) {
	license := strings.TrimSuffix(pkg, filepath.Ext(pkg)) + LicenseExt
	info, err := os.Stat(license)
	if err != nil || info.IsDir() {
		return "", false
	}
	return license, true
}

// IsFramework reports whether pkg sits directly in a Frameworks directory.
func (DirLayout) IsFramework(pkg string) bool {
	return strings.EqualFold(filepath.Base(filepath.Dir(pkg)), FrameworksDir)
}

func findFiles(dir string, match func(ext string) bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if match(strings.ToLower(filepath.Ext(d.Name()))) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(out)
	return out, nil
}
