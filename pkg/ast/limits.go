package ast

import (
	"unicode/utf8"

	"github.com/joshuapare/driverkit/pkg/types"
)

// Windows registry limits a tree must respect before it is written back.
const (
	MaxKeyNameLen   = 255
	MaxValueNameLen = 16383
	MaxValueSize    = 1 << 20
	MaxTreeDepth    = 512
)

// Limits bounds names, value sizes and depth. Zero fields are unchecked.
type Limits struct {
	MaxKeyNameLen   int
	MaxValueNameLen int
	MaxValueSize    int
	MaxTreeDepth    int
}

// DefaultLimits returns the Windows registry name and depth limits. Value
// size is unchecked since hives hold big-data values past MaxValueSize.
func DefaultLimits() Limits {
	return Limits{
		MaxKeyNameLen:   MaxKeyNameLen,
		MaxValueNameLen: MaxValueNameLen,
		MaxTreeDepth:    MaxTreeDepth,
	}
}

// Validate walks the tree and reports the first limit violation as an
// ErrKindInvalid error naming the offending path.
func (t *Tree) Validate(l Limits) error {
	return t.Root.validate(l, 0)
}

func (n *Node) validate(l Limits, depth int) error {
	if l.MaxTreeDepth > 0 && depth > l.MaxTreeDepth {
		return types.Errorf(types.ErrKindInvalid, "%s: depth %d exceeds %d", n.Path(), depth, l.MaxTreeDepth)
	}
	if l.MaxKeyNameLen > 0 && utf8.RuneCountInString(n.Name) > l.MaxKeyNameLen {
		return types.Errorf(types.ErrKindInvalid, "%s: key name longer than %d characters", n.Path(), l.MaxKeyNameLen)
	}
	for _, v := range n.Values {
		if l.MaxValueNameLen > 0 && utf8.RuneCountInString(v.Name) > l.MaxValueNameLen {
			return types.Errorf(types.ErrKindInvalid, "%s: value name longer than %d characters", n.Path(), l.MaxValueNameLen)
		}
		if l.MaxValueSize > 0 && len(v.Data) > l.MaxValueSize {
			return types.Errorf(types.ErrKindInvalid, "%s: value %q is %d bytes, max %d",
				n.Path(), v.Name, len(v.Data), l.MaxValueSize)
		}
	}
	for _, c := range n.Children {
		if err := c.validate(l, depth+1); err != nil {
			return err
		}
	}
	return nil
}
