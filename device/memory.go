package device

import (
	"sync"
	"sync/atomic"
)

type (
	address struct{ dev, block uint32 }
	// Memory is a RAM disk holding blocks for any device number.
	// Blocks that were never written read as zeros.
	// Memory is safe for concurrent use.
	Memory struct {
		mu        sync.RWMutex
		blocks    map[address][]byte
		blockSize int

		reads, writes atomic.Uint64
	}
)

// NewMemory creates an empty RAM disk.
func NewMemory(blockSize int) *Memory {
	return &Memory{
		blocks:    make(map[address][]byte),
		blockSize: blockSize,
	}
}

// Transfer copies one block in or out of memory.
func (m *Memory) Transfer(dev, block uint32, data []byte, write bool) error {
	if err := checkLength(data, m.blockSize); err != nil {
		return err
	}
	key := address{dev, block}
	if write {
		m.writes.Add(1)
		m.mu.Lock()
		defer m.mu.Unlock()
		stored, ok := m.blocks[key]
		if !ok {
			stored = make([]byte, m.blockSize)
			m.blocks[key] = stored
		}
		copy(stored, data)
		return nil
	}
	m.reads.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if stored, ok := m.blocks[key]; ok {
		copy(data, stored)
	} else {
		clear(data)
	}
	return nil
}

// Block returns a copy of a stored block, or nil if it was never written.
func (m *Memory) Block(dev, block uint32) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.blocks[address{dev, block}]
	if !ok {
		return nil
	}
	return append([]byte(nil), stored...)
}

// Reads returns the number of read transfers served.
func (m *Memory) Reads() uint64 { return m.reads.Load() }

// Writes returns the number of write transfers served.
func (m *Memory) Writes() uint64 { return m.writes.Load() }
