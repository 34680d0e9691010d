package format

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Registry strings are stored as UTF-16LE with a NUL terminator. REG_MULTI_SZ
// data is a run of NUL-terminated strings closed by one extra NUL.

// utf16le has no BOM handling: registry payloads never carry one.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeString encodes s as UTF-16LE with a trailing NUL.
func EncodeString(s string) []byte {
	out, err := utf16le.NewEncoder().Bytes([]byte(s + "\x00"))
	if err != nil {
		// Invalid UTF-8 is replaced by the encoder; any other error would be a
		// transformer bug.
		return []byte{0, 0}
	}
	return out
}

// DecodeString decodes UTF-16LE data and drops everything from the first NUL.
// An odd trailing byte is ignored.
func DecodeString(data []byte) (string, error) {
	s, err := decodeUTF16(data)
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s, nil
}

// EncodeMultiString encodes a REG_MULTI_SZ payload.
func EncodeMultiString(values []string) []byte {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(v)
		b.WriteByte(0)
	}
	b.WriteByte(0)
	out, err := utf16le.NewEncoder().Bytes([]byte(b.String()))
	if err != nil {
		return []byte{0, 0}
	}
	return out
}

// DecodeMultiString decodes a REG_MULTI_SZ payload. Trailing NULs close the
// list; empty strings between other elements are kept in place.
func DecodeMultiString(data []byte) ([]string, error) {
	s, err := decodeUTF16(data)
	if err != nil {
		return nil, err
	}
	s = strings.TrimRight(s, "\x00")
	if s == "" {
		return []string{}, nil
	}
	return strings.Split(s, "\x00"), nil
}

// DecodeUTF16LE decodes a whole UTF-16LE document (for example a .reg export
// without its BOM).
func DecodeUTF16LE(data []byte) (string, error) {
	return decodeUTF16(data)
}

// EncodeUTF16LE encodes a whole document as UTF-16LE without terminator.
func EncodeUTF16LE(s string) ([]byte, error) {
	return utf16le.NewEncoder().Bytes([]byte(s))
}

func decodeUTF16(data []byte) (string, error) {
	if len(data)%2 == 1 {
		data = data[:len(data)-1]
	}
	out, err := utf16le.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
