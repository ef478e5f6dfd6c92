//go:build !(linux || darwin || freebsd || openbsd || netbsd)

package sentinel

// Windows has no POSIX signal analogue for this trap; the gate is only
// reachable via EnableDebug on this platform.
func init() {}
