package regtext

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/joshuapare/driverkit/internal/format"
	"github.com/joshuapare/driverkit/pkg/ast"
	"github.com/joshuapare/driverkit/pkg/types"
)

// Emit writes the document back as .reg text in its recorded encoding.
// UTF-16LE output carries a BOM, as regedit writes it.
func Emit(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(RegFileHeader + CRLF + CRLF)
	exportKey(&buf, doc.Tree.Root, doc.Root)

	switch strings.ToUpper(doc.Encoding) {
	case "", EncodingUTF8:
		return buf.Bytes(), nil
	case EncodingUTF16LE:
		out, err := format.EncodeUTF16LE(buf.String())
		if err != nil {
			return nil, types.Wrap(types.ErrKindFormat, err, "regtext: encode UTF-16LE")
		}
		return append(append([]byte(nil), UTF16LEBOM...), out...), nil
	default:
		return nil, types.Errorf(types.ErrKindInvalid, "regtext: unsupported encoding %q", doc.Encoding)
	}
}

func exportKey(buf *bytes.Buffer, node *ast.Node, full string) {
	buf.WriteString(KeyOpenBracket)
	buf.WriteString(full)
	buf.WriteString(KeyCloseBracket + CRLF)

	values := append([]*ast.Value(nil), node.Values...)
	sort.SliceStable(values, func(i, j int) bool {
		return strings.ToLower(values[i].Name) < strings.ToLower(values[j].Name)
	})
	for _, v := range values {
		emitValue(buf, v)
	}
	buf.WriteString(CRLF)

	children := append([]*ast.Node(nil), node.Children...)
	sort.SliceStable(children, func(i, j int) bool {
		return strings.ToLower(children[i].Name) < strings.ToLower(children[j].Name)
	})
	for _, c := range children {
		exportKey(buf, c, joinSection(full, c.Name))
	}
}

func joinSection(parent, name string) string {
	if strings.HasSuffix(parent, Backslash) {
		return parent + name
	}
	return parent + Backslash + name
}

func emitValue(buf *bytes.Buffer, v *ast.Value) {
	var head string
	if v.Name == "" {
		head = DefaultValuePrefix
	} else {
		head = Quote + escapeString(v.Name) + Quote + ValueAssignment
	}
	buf.WriteString(head)

	switch {
	case v.Type == types.REG_SZ:
		// Strings with embedded NULs cannot be quoted; fall through to hex.
		if s, err := format.DecodeString(v.Data); err == nil && bytes.Equal(format.EncodeString(s), v.Data) {
			buf.WriteString(Quote + escapeString(s) + Quote + CRLF)
			return
		}
	case v.Type == types.REG_DWORD && len(v.Data) == DWORDSize:
		buf.WriteString(DWORDPrefix)
		fmt.Fprintf(buf, DWORDHexFormat, binary.LittleEndian.Uint32(v.Data))
		buf.WriteString(CRLF)
		return
	}

	prefix := HexPrefix
	if v.Type != types.REG_BINARY {
		prefix = fmt.Sprintf(HexTypeFormat, uint32(v.Type))
	}
	buf.WriteString(prefix)
	writeHex(buf, v.Data, len(head)+len(prefix))
	buf.WriteString(CRLF)
}

// writeHex writes comma-separated bytes, wrapping lines with a trailing
// backslash once they pass HexLineWidth.
func writeHex(buf *bytes.Buffer, data []byte, col int) {
	for i, b := range data {
		fmt.Fprintf(buf, HexByteFormat, b)
		col += 2
		if i == len(data)-1 {
			break
		}
		buf.WriteString(HexByteSeparator)
		col++
		if col >= HexLineWidth {
			buf.WriteString(LineContinuation + CRLF + HexContinuationIndent)
			col = len(HexContinuationIndent)
		}
	}
}
