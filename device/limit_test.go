package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimited_Forwards(t *testing.T) {
	var (
		mem     = NewMemory(4)
		limited = NewLimited(mem, 1<<20, 64)
	)
	require.NoError(t, limited.Transfer(1, 1, []byte("wxyz"), true))
	assert.Equal(t, []byte("wxyz"), mem.Block(1, 1))
	assert.Equal(t, uint64(1), mem.Writes())
}

func TestLimited_Throttles(t *testing.T) {
	const blockSize = 100
	var (
		mem = NewMemory(blockSize)
		// One block of burst, then ten blocks per second.
		limited = NewLimited(mem, 10*blockSize, blockSize)
		data    = make([]byte, blockSize)
		start   = time.Now()
	)
	for block := range uint32(3) {
		require.NoError(t, limited.Transfer(0, block, data, false))
	}
	// The second and third block each wait about 100ms.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestLimited_BurstSmallerThanBlock(t *testing.T) {
	limited := NewLimited(NewMemory(8), 1<<20, 4)
	err := limited.Transfer(0, 0, make([]byte, 8), false)
	assert.Error(t, err)
}
