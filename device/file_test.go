//go:build unix

package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestImage(t *testing.T, blocks uint32) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.img")
	f, err := OpenFile(path, 1, 16, blocks)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, path
}

func TestFile_ExtendsImage(t *testing.T) {
	_, path := openTestImage(t, 8)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8*16), info.Size())
}

func TestFile_RoundTrip(t *testing.T) {
	f, path := openTestImage(t, 8)
	payload := []byte("0123456789abcdef")

	require.NoError(t, f.Transfer(1, 5, payload, true))
	require.NoError(t, f.Sync())

	got := make([]byte, 16)
	require.NoError(t, f.Transfer(1, 5, got, false))
	assert.Equal(t, payload, got)

	// The block lives at its offset in the image.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, raw[5*16:6*16])
}

func TestFile_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	f, err := OpenFile(path, 1, 16, 4)
	require.NoError(t, err)
	payload := []byte("persisted block!")
	require.NoError(t, f.Transfer(1, 2, payload, true))
	require.NoError(t, f.Close())

	f, err = OpenFile(path, 1, 16, 4)
	require.NoError(t, err)
	defer f.Close()
	got := make([]byte, 16)
	require.NoError(t, f.Transfer(1, 2, got, false))
	assert.Equal(t, payload, got)
}

func TestFile_Rejects(t *testing.T) {
	f, _ := openTestImage(t, 4)
	data := make([]byte, 16)

	assert.ErrorIs(t, f.Transfer(2, 0, data, false), ErrNoDevice)
	assert.ErrorIs(t, f.Transfer(1, 4, data, false), ErrOutOfRange)
	assert.ErrorIs(t, f.Transfer(1, 0, data[:8], false), ErrBlockSize)
}
