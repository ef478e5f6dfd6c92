package sentinel

import "sync/atomic"

// debugEnabled is the process-wide debug gate for verbose worker/broker
// tracing. It starts disabled and is flipped on by debugSignal on Unix
// builds (see debug_unix.go; debug_other.go wires no signal) or by
// EnableDebug, without ever being flipped back off in-process — matching
// the original implementation's one-way siginfo trap.
var debugEnabled atomic.Bool

// VerboseDebugging reports whether the debug gate is currently set.
func VerboseDebugging() bool {
	return debugEnabled.Load()
}

// EnableDebug sets the gate directly; exported mainly for tests that don't
// want to depend on signal delivery.
func EnableDebug() {
	debugEnabled.Store(true)
}
