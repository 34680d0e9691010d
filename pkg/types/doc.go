// Package types holds the small, dependency-free vocabulary shared by the
// driverkit packages: registry value kinds, typed errors with stable
// categories, and the 32-bit status codes reported by the servicing backend.
package types
