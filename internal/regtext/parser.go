package regtext

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/driverkit/internal/format"
	"github.com/joshuapare/driverkit/pkg/ast"
	"github.com/joshuapare/driverkit/pkg/types"
)

// Document is a .reg export loaded into a tree.
type Document struct {
	// Root is the section path that maps to the tree root, for example
	// HKEY_LOCAL_MACHINE\SYSTEM. Every other section must live below it.
	Root string

	// Encoding is the input encoding, reused when the document is written back.
	Encoding string

	Tree *ast.Tree
}

// ParseOptions controls Parse.
type ParseOptions struct {
	// Root overrides the root section. When empty the first section is the root.
	Root string
}

// Parse converts .reg text into a tree. Deletion sections and "-" values
// are applied to the tree as they are read.
func Parse(data []byte, opts ParseOptions) (*Document, error) {
	text, enc, err := decodeInput(data)
	if err != nil {
		return nil, err
	}

	doc := &Document{Root: opts.Root, Encoding: enc, Tree: ast.NewTree()}
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, ScannerInitialBufferSize), ScannerMaxLineSize)

	seenHeader := false
	var current *ast.Node
	skipping := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimRight(scanner.Text(), CR))
		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}
		if !seenHeader {
			if line != RegFileHeader && line != RegFileHeaderV4 {
				return nil, types.Errorf(types.ErrKindFormat, "regtext: missing header")
			}
			seenHeader = true
			continue
		}

		if strings.HasPrefix(line, KeyOpenBracket) {
			if !strings.HasSuffix(line, KeyCloseBracket) {
				return nil, types.Errorf(types.ErrKindFormat, "regtext: line %d: malformed section %q", lineNo, line)
			}
			section := strings.TrimSuffix(strings.TrimPrefix(line, KeyOpenBracket), KeyCloseBracket)
			current, err = doc.section(section)
			if err != nil {
				return nil, types.Wrap(types.ErrKindFormat, err, "regtext: line %d", lineNo)
			}
			skipping = current == nil
			continue
		}

		// Hex payloads wrap with a trailing backslash.
		for strings.HasSuffix(line, LineContinuation) && scanner.Scan() {
			lineNo++
			line = strings.TrimSuffix(line, LineContinuation) + strings.TrimSpace(strings.TrimRight(scanner.Text(), CR))
		}

		if skipping {
			continue
		}
		if current == nil {
			return nil, types.Errorf(types.ErrKindFormat, "regtext: line %d: value without section: %q", lineNo, line)
		}
		if err := parseValueLine(current, line); err != nil {
			return nil, types.Wrap(types.ErrKindFormat, err, "regtext: line %d", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, types.Wrap(types.ErrKindFormat, err, "regtext: scan")
	}
	if !seenHeader {
		return nil, types.Errorf(types.ErrKindFormat, "regtext: missing header")
	}
	doc.Tree.ClearDirty()
	return doc, nil
}

// section resolves a section header to its node. A nil node with a nil
// error means the section deleted a key.
func (d *Document) section(section string) (*ast.Node, error) {
	deleting := strings.HasPrefix(section, DeleteKeyPrefix)
	if deleting {
		section = strings.TrimSpace(section[len(DeleteKeyPrefix):])
	}
	if d.Root == "" {
		if deleting {
			return nil, fmt.Errorf("first section %q deletes a key", section)
		}
		d.Root = section
		return d.Tree.Root, nil
	}

	rel, ok := relativePath(d.Root, section)
	if !ok {
		return nil, fmt.Errorf("section %q is outside root %q", section, d.Root)
	}
	if deleting {
		if rel == "" {
			return nil, fmt.Errorf("section %q deletes the root", section)
		}
		segs := ast.SplitPath(rel)
		parent := d.Tree.FindNode(strings.Join(segs[:len(segs)-1], Backslash))
		if parent != nil {
			parent.RemoveChild(segs[len(segs)-1])
		}
		return nil, nil
	}
	return d.Tree.EnsurePath(rel), nil
}

// relativePath strips root from section, ignoring case.
func relativePath(root, section string) (string, bool) {
	if strings.EqualFold(root, section) {
		return "", true
	}
	prefix := root
	if !strings.HasSuffix(prefix, Backslash) {
		prefix += Backslash
	}
	if len(section) > len(prefix) && strings.EqualFold(section[:len(prefix)], prefix) {
		return section[len(prefix):], true
	}
	return "", false
}

func parseValueLine(node *ast.Node, line string) error {
	if strings.HasPrefix(line, DefaultValuePrefix) {
		return parseValue(node, "", line[len(DefaultValuePrefix):])
	}
	if !strings.HasPrefix(line, Quote) {
		return fmt.Errorf("malformed value line %q", line)
	}
	end := findClosingQuote(line)
	if end < 0 {
		return fmt.Errorf("unterminated value name in %q", line)
	}
	name := unescapeRegString(line[1:end])
	rest := strings.TrimSpace(line[end+1:])
	if !strings.HasPrefix(rest, ValueAssignment) {
		return fmt.Errorf("missing '=' in %q", line)
	}
	return parseValue(node, name, rest[len(ValueAssignment):])
}

func parseValue(node *ast.Node, name, payload string) error {
	payload = strings.TrimSpace(payload)
	switch {
	case payload == DeleteValueToken:
		node.RemoveValue(name)
		return nil

	case strings.HasPrefix(payload, Quote):
		if len(payload) < 2 || !strings.HasSuffix(payload, Quote) {
			return fmt.Errorf("unterminated string %q", payload)
		}
		value := unescapeRegString(payload[1 : len(payload)-1])
		node.AddValue(name, types.REG_SZ, format.EncodeString(value))
		return nil

	case strings.HasPrefix(payload, DWORDPrefix):
		hexPart := payload[len(DWORDPrefix):]
		if len(hexPart) != DWORDHexLength {
			return fmt.Errorf("invalid dword %q", payload)
		}
		n, err := strconv.ParseUint(hexPart, 16, 32)
		if err != nil {
			return err
		}
		buf := make([]byte, DWORDSize)
		binary.LittleEndian.PutUint32(buf, uint32(n))
		node.AddValue(name, types.REG_DWORD, buf)
		return nil

	case strings.HasPrefix(payload, "hex"):
		typ, err := parseHexValueType(payload)
		if err != nil {
			return err
		}
		data, err := parseHexBytes(payload)
		if err != nil {
			return err
		}
		node.AddValue(name, typ, data)
		return nil
	}
	return fmt.Errorf("unsupported value %q", payload)
}

// decodeInput converts input data to UTF-8 text and reports its encoding.
func decodeInput(data []byte) (string, string, error) {
	if bytes.HasPrefix(data, UTF16LEBOM) {
		s, err := format.DecodeUTF16LE(data[len(UTF16LEBOM):])
		if err != nil {
			return "", "", types.Wrap(types.ErrKindFormat, err, "regtext: decode UTF-16LE")
		}
		return s, EncodingUTF16LE, nil
	}
	return string(bytes.TrimPrefix(data, UTF8BOM)), EncodingUTF8, nil
}
