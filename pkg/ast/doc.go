// Package ast provides an in-memory tree representation of a registry hive.
//
// The tree holds keys (Node) and values (Value) with raw registry payloads,
// so a hive decoded from any serialization can be edited and written back
// without loss for value kinds the caller never touches. Names are compared
// case-insensitively, as Windows does.
//
// # Usage Example
//
//	tree := ast.NewTree()
//	svc := tree.EnsurePath(`ControlSet001\Services\qcwlan`)
//	svc.AddValue("ImagePath", types.REG_EXPAND_SZ, format.EncodeString(`\SystemRoot\x.sys`))
//
//	// Use the tree as an abstract hive
//	var root hive.Key = tree.Key()
//
// Dirty flags propagate to the root so stores can skip rewriting unchanged
// hives on close.
package ast
