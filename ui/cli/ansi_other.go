//go:build !windows

package cli

// EnableANSI is a no-op where terminals understand escape codes.
func EnableANSI() {}
