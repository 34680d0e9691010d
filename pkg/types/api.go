package types

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindFormat   ErrKind = iota // malformed input (bad .reg header, bad hex payload)
	ErrKindNotFound                // missing key/value/path
	ErrKindType                    // requested decode doesn't match value RegType
	ErrKindInvalid                 // caller supplied an unusable argument
	ErrKindMissing                 // a declared prerequisite is absent on disk
	ErrKindInstall                 // the servicing backend rejected a unit for good
)

// String returns a short lowercase label for the kind.
func (k ErrKind) String() string {
	switch k {
	case ErrKindFormat:
		return "format"
	case ErrKindNotFound:
		return "not found"
	case ErrKindType:
		return "type"
	case ErrKindInvalid:
		return "invalid"
	case ErrKindMissing:
		return "missing"
	case ErrKindInstall:
		return "install"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error of the same kind, so the sentinels
// below match any error of their category.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Errorf builds a typed error with a formatted message.
func Errorf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind ErrKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Sentinels commonly returned by implementations.
var (
	// ErrFormat indicates malformed serialized input.
	ErrFormat = &Error{Kind: ErrKindFormat, Msg: "malformed input"}
	// ErrNotFound indicates a missing key/value/path.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrTypeMismatch indicates the requested decode doesn't match the value type.
	ErrTypeMismatch = &Error{Kind: ErrKindType, Msg: "registry value has different type"}
	// ErrInvalid indicates an unusable argument.
	ErrInvalid = &Error{Kind: ErrKindInvalid, Msg: "invalid argument"}
	// ErrMissing indicates a declared component or app directory is absent.
	ErrMissing = &Error{Kind: ErrKindMissing, Msg: "missing prerequisite"}
	// ErrInstall indicates an install unit failed after all attempts.
	ErrInstall = &Error{Kind: ErrKindInstall, Msg: "install failed"}
)

// -----------------------------------------------------------------------------
// Registry value kinds
// -----------------------------------------------------------------------------

// RegType enumerates Windows registry value types commonly encountered.
// (The numbers align with Windows definitions.)
type RegType uint32

const (
	REG_NONE                       RegType = 0
	REG_SZ                         RegType = 1
	REG_EXPAND_SZ                  RegType = 2
	REG_BINARY                     RegType = 3
	REG_DWORD                      RegType = 4
	REG_DWORD_BE                   RegType = 5
	REG_LINK                       RegType = 6
	REG_MULTI_SZ                   RegType = 7
	REG_RESOURCE_LIST              RegType = 8
	REG_FULL_RESOURCE_DESCRIPTOR   RegType = 9
	REG_RESOURCE_REQUIREMENTS_LIST RegType = 10
	REG_QWORD                      RegType = 11
)

// String implements the Stringer interface for RegType
func (t RegType) String() string {
	switch t {
	case REG_NONE:
		return "REG_NONE"
	case REG_SZ:
		return "REG_SZ"
	case REG_EXPAND_SZ:
		return "REG_EXPAND_SZ"
	case REG_BINARY:
		return "REG_BINARY"
	case REG_DWORD:
		return "REG_DWORD"
	case REG_DWORD_BE:
		return "REG_DWORD_BE"
	case REG_LINK:
		return "REG_LINK"
	case REG_MULTI_SZ:
		return "REG_MULTI_SZ"
	case REG_RESOURCE_LIST:
		return "REG_RESOURCE_LIST"
	case REG_FULL_RESOURCE_DESCRIPTOR:
		return "REG_FULL_RESOURCE_DESCRIPTOR"
	case REG_RESOURCE_REQUIREMENTS_LIST:
		return "REG_RESOURCE_REQUIREMENTS_LIST"
	case REG_QWORD:
		return "REG_QWORD"
	default:
		return fmt.Sprintf("UNKNOWN_TYPE_%d", int32(t))
	}
}

// IsText reports whether the type carries a single string (REG_SZ or REG_EXPAND_SZ).
func (t RegType) IsText() bool {
	return t == REG_SZ || t == REG_EXPAND_SZ
}

// -----------------------------------------------------------------------------
// Servicing status codes
// -----------------------------------------------------------------------------

// Status is a 32-bit result code reported by the servicing backend.
// Zero is success; a set high bit marks a failure.
type Status uint32

// StatusSuccess is the zero status.
const StatusSuccess Status = 0

// StatusFailureBit is the high bit that marks a failing status.
const StatusFailureBit Status = 0x80000000

// IsFailure reports whether the high bit is set.
func (s Status) IsFailure() bool {
	return s&StatusFailureBit != 0
}

// String formats the status the way servicing logs do (0xC1570118).
func (s Status) String() string {
	return fmt.Sprintf("0x%08X", uint32(s))
}
