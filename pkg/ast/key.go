package ast

import (
	"github.com/joshuapare/driverkit/internal/format"
	"github.com/joshuapare/driverkit/pkg/hive"
	"github.com/joshuapare/driverkit/pkg/types"
)

// Key returns the tree root as a hive.Key.
func (t *Tree) Key() hive.Key {
	return nodeKey{n: t.Root}
}

// KeyOf wraps any node as a hive.Key.
func KeyOf(n *Node) hive.Key {
	return nodeKey{n: n}
}

// nodeKey adapts *Node to hive.Key, encoding and decoding payloads on the way.
type nodeKey struct {
	n *Node
}

func (k nodeKey) Name() string { return k.n.Name }

func (k nodeKey) Path() string { return k.n.Path() }

func (k nodeKey) SubkeyNames() ([]string, error) {
	names := make([]string, len(k.n.Children))
	for i, c := range k.n.Children {
		names[i] = c.Name
	}
	return names, nil
}

func (k nodeKey) OpenSubkey(name string) (hive.Key, error) {
	child := k.n.Child(name)
	if child == nil {
		return nil, hive.NotFound(k.n.Path(), name)
	}
	return nodeKey{n: child}, nil
}

func (k nodeKey) ValueNames() ([]string, error) {
	names := make([]string, len(k.n.Values))
	for i, v := range k.n.Values {
		names[i] = v.Name
	}
	return names, nil
}

func (k nodeKey) Value(name string) (hive.Value, error) {
	v := k.n.FindValue(name)
	if v == nil {
		return hive.Value{}, hive.NotFound(k.n.Path(), name)
	}
	return DecodeValue(v)
}

func (k nodeKey) SetValue(v hive.Value) error {
	data, err := EncodeValue(v)
	if err != nil {
		return err
	}
	k.n.AddValue(v.Name, v.Type, data)
	return nil
}

func (k nodeKey) DeleteValue(name string) error {
	if !k.n.RemoveValue(name) {
		return hive.NotFound(k.n.Path(), name)
	}
	return nil
}

func (k nodeKey) DeleteSubtree(name string) error {
	if !k.n.RemoveChild(name) {
		return hive.NotFound(k.n.Path(), name)
	}
	return nil
}

// DecodeValue converts a stored value into its decoded form.
func DecodeValue(v *Value) (hive.Value, error) {
	out := hive.Value{Name: v.Name, Type: v.Type}
	switch {
	case v.Type.IsText():
		s, err := format.DecodeString(v.Data)
		if err != nil {
			return hive.Value{}, types.Wrap(types.ErrKindFormat, err, "decode %s %q", v.Type, v.Name)
		}
		out.Text = s
	case v.Type == types.REG_MULTI_SZ:
		ss, err := format.DecodeMultiString(v.Data)
		if err != nil {
			return hive.Value{}, types.Wrap(types.ErrKindFormat, err, "decode %s %q", v.Type, v.Name)
		}
		out.Multi = ss
	default:
		out.Data = append([]byte(nil), v.Data...)
	}
	return out, nil
}

// EncodeValue converts a decoded value into its stored payload.
func EncodeValue(v hive.Value) ([]byte, error) {
	switch {
	case v.Type.IsText():
		return format.EncodeString(v.Text), nil
	case v.Type == types.REG_MULTI_SZ:
		return format.EncodeMultiString(v.Multi), nil
	default:
		return append([]byte(nil), v.Data...), nil
	}
}
