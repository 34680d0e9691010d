// Package regfile stores a hive as a .reg export on disk.
//
// Open parses the whole file into an in-memory tree; Close writes it back
// (atomically, through a temp file and rename) only when something changed.
package regfile

import (
	"os"
	"path/filepath"

	"github.com/joshuapare/driverkit/internal/regtext"
	"github.com/joshuapare/driverkit/pkg/ast"
	"github.com/joshuapare/driverkit/pkg/hive"
	"github.com/joshuapare/driverkit/pkg/types"
)

// Opener opens .reg backed hives.
type Opener struct {
	// Root overrides the section that maps to the hive root. Empty means
	// the first section of the file.
	Root string

	// Backup keeps a copy of the original file as <path>.bak before the
	// first write.
	Backup bool
}

// Open implements hive.Opener.
func (o Opener) Open(path string) (hive.Hive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.Wrap(types.ErrKindNotFound, err, "open hive %s", path)
		}
		return nil, err
	}
	doc, err := regtext.Parse(data, regtext.ParseOptions{Root: o.Root})
	if err != nil {
		return nil, types.Wrap(types.ErrKindFormat, err, "parse hive %s", path)
	}
	return &File{path: path, doc: doc, original: data, backup: o.Backup}, nil
}

// File is an opened .reg backed hive.
type File struct {
	path     string
	doc      *regtext.Document
	original []byte
	backup   bool
	closed   bool
}

// Root implements hive.Hive.
func (f *File) Root() hive.Key {
	return f.doc.Tree.Key()
}

// Tree exposes the underlying tree.
func (f *File) Tree() *ast.Tree {
	return f.doc.Tree
}

// Close writes the tree back if it changed and still fits the registry
// limits. Calling Close twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if !f.doc.Tree.Dirty() {
		return nil
	}
	if err := f.doc.Tree.Validate(ast.DefaultLimits()); err != nil {
		return err
	}
	out, err := regtext.Emit(f.doc)
	if err != nil {
		return err
	}
	if f.backup {
		if err := os.WriteFile(f.path+".bak", f.original, 0o644); err != nil {
			return err
		}
	}
	if err := writeAtomic(f.path, out); err != nil {
		return err
	}
	f.doc.Tree.ClearDirty()
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
