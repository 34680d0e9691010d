/*
Package hive defines the abstract registry store the reconciliation engine
works against.

A hive is a tree of keys. Each key owns child keys (unique by case-insensitive
name) and named values. The binary "regf" format is not handled here: callers
obtain a Hive from an Opener, and this module ships two implementations, the
in-memory tree in pkg/ast and the .reg text backed store in pkg/hive/regfile.

# Basic Usage

	h, err := regfile.Opener{}.Open(hive.SystemHivePath(imageRoot))
	if err != nil {
	    return err
	}
	defer h.Close()

	root := h.Root()
	names, _ := root.ValueNames()
	for _, name := range names {
	    v, err := root.Value(name)
	    ...
	}

# Values

Value carries a decoded payload. REG_SZ and REG_EXPAND_SZ use Text,
REG_MULTI_SZ uses Multi, every other kind keeps its raw bytes in Data. The
empty name addresses the key's default value.

# Mutation During Traversal

SubkeyNames and ValueNames return fresh slices. Callers that delete while
iterating must iterate those snapshots, never a live view.
*/
package hive
