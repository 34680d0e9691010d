package hive

import "github.com/joshuapare/driverkit/pkg/types"

// Re-export commonly used types from pkg/types so users only need to import pkg/hive

// RegType enumerates Windows registry value types.
type RegType = types.RegType

// Registry type constants.
const (
	REG_NONE      = types.REG_NONE
	REG_SZ        = types.REG_SZ
	REG_EXPAND_SZ = types.REG_EXPAND_SZ
	REG_BINARY    = types.REG_BINARY
	REG_DWORD     = types.REG_DWORD
	REG_MULTI_SZ  = types.REG_MULTI_SZ
	REG_QWORD     = types.REG_QWORD
)

// Error re-exports the typed error.
type Error = types.Error

// Sentinel errors.
var (
	ErrNotFound     = types.ErrNotFound
	ErrTypeMismatch = types.ErrTypeMismatch
)
