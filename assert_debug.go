//go:build computedebug

package compute

// debugAssertions reports whether invariant checks are compiled in.
const debugAssertions = true

// assert panics with msg when cond is false.
func assert(cond bool, msg string) {
	if !cond {
		panic("compute: invariant violated: " + msg)
	}
}
