package bcache

import "fmt"

type constError string

const (
	// ErrInvalidCapacity may be returned from [New].
	ErrInvalidCapacity = constError("invalid buffer count")
	// ErrInvalidBuckets may be returned from [New].
	ErrInvalidBuckets = constError("invalid bucket count")
	// ErrInvalidBlockSize may be returned from [New].
	ErrInvalidBlockSize = constError("invalid block size")
	// ErrNilDevice may be returned from [New].
	ErrNilDevice = constError("nil device")

	// ErrNoBuffers is the panic value of a miss
	// that finds every buffer referenced.
	ErrNoBuffers = constError("no buffers")
	// ErrNotHeld is the panic value of a write or release
	// by a caller that does not hold the buffer.
	ErrNotHeld = constError("buffer not held")
	// ErrRefUnderflow is the panic value of a release or unpin
	// that would drive a reference count below zero.
	ErrRefUnderflow = constError("reference count underflow")
	// ErrTransfer is the panic value wrapping a device failure.
	ErrTransfer = constError("block transfer failed")
)

func (errStr constError) Error() string { return string(errStr) }

func minimumError(err error, minimum, requested int) error {
	return fmt.Errorf(
		"%w: must be >=%d but %d was requested",
		err, minimum, requested)
}

func exhaustedError(dev, block uint32, buffers int) error {
	return fmt.Errorf(
		"%w: all %d buffers referenced while loading block %d of device %d",
		ErrNoBuffers, buffers, block, dev)
}

func notHeldError(op string, dev, block uint32) error {
	return fmt.Errorf(
		"%w: %s of block %d of device %d",
		ErrNotHeld, op, block, dev)
}

func underflowError(op string, dev, block uint32) error {
	return fmt.Errorf(
		"%w: %s of block %d of device %d",
		ErrRefUnderflow, op, block, dev)
}

func transferError(write bool, dev, block uint32, err error) error {
	direction := "read"
	if write {
		direction = "write"
	}
	return fmt.Errorf(
		"%w: %s of block %d of device %d: %w",
		ErrTransfer, direction, block, dev, err)
}
