package bcache_test

import (
	"fmt"

	"github.com/djdv/go-bcache"
	"github.com/djdv/go-bcache/device"
)

func ExampleCache() {
	const (
		blockSize = 16
		dev       = 1
		block     = 7
	)
	disk := device.NewMemory(blockSize)
	cache, err := bcache.New(disk, bcache.WithBlockSize(blockSize))
	if err != nil {
		panic(err)
	}
	h := cache.Read(dev, block)
	copy(h.Data(), "hello, disk")
	cache.Write(h)
	cache.Release(h)

	h = cache.Read(dev, block)
	fmt.Printf("%s\n", h.Data()[:11])
	cache.Release(h)
	fmt.Println("device reads:", disk.Reads())
	// Output:
	// hello, disk
	// device reads: 1
}

func ExampleCache_Pin() {
	const blockSize = 8
	cache, err := bcache.New(device.NewMemory(blockSize),
		bcache.WithBuffers(2),
		bcache.WithBlockSize(blockSize),
	)
	if err != nil {
		panic(err)
	}
	// Keep the superblock resident while other blocks stream through.
	super := cache.Read(1, 1)
	cache.Pin(super)
	cache.Release(super)
	for block := uint32(2); block < 10; block++ {
		cache.Release(cache.Read(1, block))
	}
	before := cache.Stats().Misses
	super = cache.Read(1, 1)
	fmt.Println("superblock was a hit:", cache.Stats().Misses == before)
	cache.Release(super)
	cache.Unpin(super)
	// Output:
	// superblock was a hit: true
}
