//go:build unix

package device

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is a device backed by a disk image file.
// It serves exactly one device number.
// File is safe for concurrent use; positioned I/O
// never moves a shared file offset.
type File struct {
	file      *os.File
	fd        int
	dev       uint32
	blockSize int
	blocks    uint32
}

// OpenFile opens (creating if needed) the image at path as device dev,
// holding blocks blocks of blockSize bytes. A shorter image is extended.
func OpenFile(path string, dev uint32, blockSize int, blocks uint32) (*File, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	var (
		fd   = int(file.Fd())
		size = int64(blockSize) * int64(blocks)
		stat unix.Stat_t
	)
	if err := unix.Fstat(fd, &stat); err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if stat.Size < size {
		if err := unix.Ftruncate(fd, size); err != nil {
			file.Close()
			return nil, fmt.Errorf("extend %s to %d bytes: %w", path, size, err)
		}
	}
	return &File{
		file:      file,
		fd:        fd,
		dev:       dev,
		blockSize: blockSize,
		blocks:    blocks,
	}, nil
}

// Transfer reads or writes one block at its offset in the image.
func (f *File) Transfer(dev, block uint32, data []byte, write bool) error {
	if dev != f.dev {
		return fmt.Errorf("%w: %d (image serves %d)", ErrNoDevice, dev, f.dev)
	}
	if block >= f.blocks {
		return fmt.Errorf("%w: %d of %d", ErrOutOfRange, block, f.blocks)
	}
	if err := checkLength(data, f.blockSize); err != nil {
		return err
	}
	offset := int64(block) * int64(f.blockSize)
	for done := 0; done < len(data); {
		var (
			n   int
			err error
		)
		if write {
			n, err = unix.Pwrite(f.fd, data[done:], offset+int64(done))
		} else {
			n, err = unix.Pread(f.fd, data[done:], offset+int64(done))
		}
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return err
		case n == 0:
			return fmt.Errorf("short transfer of block %d: %d of %d bytes",
				block, done, len(data))
		}
		done += n
	}
	return nil
}

// Sync flushes the image to stable storage.
func (f *File) Sync() error { return unix.Fsync(f.fd) }

// Close releases the image file.
func (f *File) Close() error { return f.file.Close() }
