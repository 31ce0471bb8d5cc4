package device

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ReadUnwrittenIsZero(t *testing.T) {
	m := NewMemory(8)
	data := bytes.Repeat([]byte{0xff}, 8)

	require.NoError(t, m.Transfer(1, 3, data, false))
	assert.Equal(t, make([]byte, 8), data)
	assert.Nil(t, m.Block(1, 3))
	assert.Equal(t, uint64(1), m.Reads())
}

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory(4)
	require.NoError(t, m.Transfer(2, 7, []byte("abcd"), true))

	got := make([]byte, 4)
	require.NoError(t, m.Transfer(2, 7, got, false))
	assert.Equal(t, []byte("abcd"), got)

	// Devices do not share blocks.
	require.NoError(t, m.Transfer(3, 7, got, false))
	assert.Equal(t, make([]byte, 4), got)

	assert.Equal(t, uint64(1), m.Writes())
	assert.Equal(t, uint64(2), m.Reads())
}

func TestMemory_StoresCopy(t *testing.T) {
	m := NewMemory(4)
	data := []byte("abcd")
	require.NoError(t, m.Transfer(0, 0, data, true))
	data[0] = 'z'
	assert.Equal(t, []byte("abcd"), m.Block(0, 0))
}

func TestMemory_WrongLength(t *testing.T) {
	m := NewMemory(4)
	err := m.Transfer(0, 0, make([]byte, 3), false)
	assert.ErrorIs(t, err, ErrBlockSize)
}

func TestMemory_Concurrent(t *testing.T) {
	const workers = 16
	m := NewMemory(8)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func(block uint32) {
			defer wg.Done()
			data := bytes.Repeat([]byte{byte(block)}, 8)
			for range 100 {
				assert.NoError(t, m.Transfer(0, block, data, true))
				assert.NoError(t, m.Transfer(0, block, data, false))
			}
		}(uint32(w))
	}
	wg.Wait()

	for w := range workers {
		assert.Equal(t, bytes.Repeat([]byte{byte(w)}, 8), m.Block(0, uint32(w)))
	}
}
