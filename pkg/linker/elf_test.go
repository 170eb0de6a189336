package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToP2AlignLaw(t *testing.T) {
	assert.Equal(t, uint8(0), ToP2Align(0))
	for _, n := range []uint64{1, 2, 4, 8, 16, 32, 4096} {
		got := ToP2Align(n)
		assert.Equal(t, n, uint64(1)<<got, "1 << to_p2align(%d) must equal %d", n, n)
	}
}
