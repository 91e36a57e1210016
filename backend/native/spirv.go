//go:build !nogpu

package native

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	lru "github.com/hashicorp/golang-lru/v2"
)

// WorkgroupSizeToken is replaced by the pipeline's local work group
// ("x, y, z") before a kernel is compiled.
const WorkgroupSizeToken = "WORKGROUP_SIZE"

// specialize substitutes the local work group into WGSL source.
func specialize(wgsl string, size [3]uint32) string {
	if !strings.Contains(wgsl, WorkgroupSizeToken) {
		return wgsl
	}
	return strings.ReplaceAll(wgsl, WorkgroupSizeToken, fmt.Sprintf("%d, %d, %d", size[0], size[1], size[2]))
}

// spirvWords converts little-endian SPIR-V bytes to 32-bit words.
func spirvWords(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("native: SPIR-V length %d is not a positive multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}

// compiler turns specialized WGSL into SPIR-V, remembering recent results.
// Pipelines that differ only by layout reuse the compiled words.
type compiler struct {
	cache   *lru.Cache[string, []uint32]
	compile func(string) ([]byte, error)
}

func newCompiler(size int) *compiler {
	cache, err := lru.New[string, []uint32](size)
	if err != nil {
		// Only reachable with a non-positive size, which options rule out.
		panic(err)
	}
	return &compiler{cache: cache, compile: naga.Compile}
}

// spirv returns the SPIR-V for wgsl specialized to size.
func (c *compiler) spirv(wgsl string, size [3]uint32) ([]uint32, error) {
	src := specialize(wgsl, size)
	if words, ok := c.cache.Get(src); ok {
		return words, nil
	}
	b, err := c.compile(src)
	if err != nil {
		return nil, fmt.Errorf("native: compile WGSL: %w", err)
	}
	words, err := spirvWords(b)
	if err != nil {
		return nil, err
	}
	c.cache.Add(src, words)
	return words, nil
}

// purge drops every cached compilation.
func (c *compiler) purge() {
	c.cache.Purge()
}
