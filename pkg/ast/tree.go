package ast

import (
	"strings"

	"github.com/joshuapare/driverkit/pkg/types"
)

// RegistryPathSeparator is the backslash character used to separate
// components in Windows Registry paths.
const RegistryPathSeparator = "\\"

// Tree represents the complete registry hive tree structure.
type Tree struct {
	Root *Node
}

// Node represents a registry key.
type Node struct {
	Name string

	// Tree structure
	Parent   *Node
	Children []*Node
	Values   []*Value

	// Dirty is true if the node or any descendant was modified.
	Dirty bool
}

// Value represents a registry value.
type Value struct {
	Name  string        // value name ("" for default/unnamed)
	Type  types.RegType // registry type (REG_SZ, REG_DWORD, etc.)
	Data  []byte        // raw value data
	Dirty bool          // true if modified since load
}

// NewTree creates a new empty tree.
func NewTree() *Tree {
	return &Tree{
		Root: &Node{
			Name:     "",
			Children: make([]*Node, 0),
			Values:   make([]*Value, 0),
		},
	}
}

// FindNode finds a node by path in the tree.
// Returns nil if not found.
func (t *Tree) FindNode(path string) *Node {
	node := t.Root
	for _, seg := range splitPath(path) {
		node = node.Child(seg)
		if node == nil {
			return nil
		}
	}
	return node
}

// EnsurePath returns the node at path, creating missing keys on the way.
func (t *Tree) EnsurePath(path string) *Node {
	node := t.Root
	for _, seg := range splitPath(path) {
		child := node.Child(seg)
		if child == nil {
			child = node.AddChild(seg)
		}
		node = child
	}
	return node
}

// Dirty reports whether anything in the tree changed.
func (t *Tree) Dirty() bool {
	return t.Root.Dirty
}

// ClearDirty resets dirty flags after the tree has been persisted.
func (t *Tree) ClearDirty() {
	clearDirty(t.Root)
}

func clearDirty(n *Node) {
	n.Dirty = false
	for _, v := range n.Values {
		v.Dirty = false
	}
	for _, c := range n.Children {
		clearDirty(c)
	}
}

// SplitPath splits a registry path into segments.
// Exported to allow internal packages to use it.
func SplitPath(path string) []string {
	return splitPath(path)
}

// Path returns the backslash-joined path from the root ("" for the root).
func (n *Node) Path() string {
	if n.Parent == nil {
		return ""
	}
	parent := n.Parent.Path()
	if parent == "" {
		return n.Name
	}
	return parent + RegistryPathSeparator + n.Name
}

// MarkDirty marks a node and all its ancestors as dirty.
func (n *Node) MarkDirty() {
	current := n
	for current != nil {
		if current.Dirty {
			// Already dirty, ancestors are also dirty
			break
		}
		current.Dirty = true
		current = current.Parent
	}
}

// Child returns the direct child with the given name, ignoring case.
func (n *Node) Child(name string) *Node {
	for _, child := range n.Children {
		if strings.EqualFold(child.Name, name) {
			return child
		}
	}
	return nil
}

// AddChild adds a new child node. An existing child with the same name
// (ignoring case) is returned instead of adding a duplicate.
func (n *Node) AddChild(name string) *Node {
	if existing := n.Child(name); existing != nil {
		return existing
	}
	child := &Node{
		Name:     name,
		Parent:   n,
		Children: make([]*Node, 0),
		Values:   make([]*Value, 0),
	}
	n.Children = append(n.Children, child)
	child.MarkDirty()
	return child
}

// FindValue returns the value with the given name, ignoring case.
func (n *Node) FindValue(name string) *Value {
	for _, v := range n.Values {
		if strings.EqualFold(v.Name, name) {
			return v
		}
	}
	return nil
}

// AddValue adds or updates a value on this node.
func (n *Node) AddValue(name string, typ types.RegType, data []byte) {
	// Check if value exists and update
	if v := n.FindValue(name); v != nil {
		v.Type = typ
		v.Data = data
		v.Dirty = true
		n.MarkDirty()
		return
	}

	n.Values = append(n.Values, &Value{
		Name:  name,
		Type:  typ,
		Data:  data,
		Dirty: true,
	})
	n.MarkDirty()
}

// RemoveValue removes a value by name.
func (n *Node) RemoveValue(name string) bool {
	for i, v := range n.Values {
		if strings.EqualFold(v.Name, name) {
			n.Values = append(n.Values[:i], n.Values[i+1:]...)
			n.MarkDirty()
			return true
		}
	}
	return false
}

// RemoveChild removes a child node, and with it the whole subtree, by name.
func (n *Node) RemoveChild(name string) bool {
	for i, child := range n.Children {
		if strings.EqualFold(child.Name, name) {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			n.MarkDirty()
			return true
		}
	}
	return false
}

// splitPath splits a registry path into segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}

	segments := make([]string, 0)
	start := 0
	for i := range len(path) {
		if path[i] == RegistryPathSeparator[0] {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		segments = append(segments, path[start:])
	}

	return segments
}
