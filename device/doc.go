// Package device provides block devices for a buffer cache:
// an in-memory disk, a disk image file, and a throughput limiter
// that wraps either.
//
// Every device transfers exactly one block per call:
//
//	Transfer(dev, block uint32, data []byte, write bool) error
//
// A read fills data; a write persists it. len(data) must equal
// the block size the device was created with.
package device
