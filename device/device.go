package device

import "fmt"

// BlockDevice transfers whole blocks. It matches the device
// interface of the buffer cache.
type BlockDevice interface {
	Transfer(dev, block uint32, data []byte, write bool) error
}

type constError string

const (
	// ErrBlockSize is returned for a transfer of the wrong length.
	ErrBlockSize = constError("transfer length does not match block size")
	// ErrOutOfRange is returned for a block past the end of the device.
	ErrOutOfRange = constError("block out of range")
	// ErrNoDevice is returned for an unknown device number.
	ErrNoDevice = constError("no such device")
)

func (errStr constError) Error() string { return string(errStr) }

func checkLength(data []byte, blockSize int) error {
	if len(data) == blockSize {
		return nil
	}
	return fmt.Errorf("%w: got %d bytes, want %d",
		ErrBlockSize, len(data), blockSize)
}
