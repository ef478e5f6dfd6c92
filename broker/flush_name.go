package broker

import "github.com/flowforge/pipeline/sentinel"

// flushName generates a name unlikely to collide with any real
// registration, so Flush's throwaway entry never shadows a caller's.
func flushName() string {
	return "flush-" + sentinel.RandomName(24)
}
