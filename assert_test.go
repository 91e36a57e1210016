package compute

import "testing"

func TestAssert(t *testing.T) {
	assert(true, "holds")

	defer func() {
		panicked := recover() != nil
		if panicked != debugAssertions {
			t.Errorf("assert(false) panicked = %v, want %v", panicked, debugAssertions)
		}
	}()
	assert(false, "broken")
}
