//go:build !computedebug

package compute

// debugAssertions reports whether invariant checks are compiled in.
const debugAssertions = false

// assert is a no-op in release builds; build with -tags computedebug to enable it.
func assert(bool, string) {}
