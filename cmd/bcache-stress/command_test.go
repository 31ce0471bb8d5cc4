package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var (
		cmd    = newRootCommand()
		stdout bytes.Buffer
		stderr bytes.Buffer
	)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestStress_Patterns(t *testing.T) {
	for _, name := range []string{patternUniform, patternZipf, patternLoop} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t,
				"--buffers", "8", "--buckets", "3", "--block-size", "64",
				"--workers", "4", "--ops", "500", "--blocks", "40",
				"--pattern", name, "--write-ratio", "0.3",
				"--log-level", "error",
			)
			require.NoError(t, err)
			assert.Contains(t, out, "operations")
			assert.Contains(t, out, "2,000")
			assert.Contains(t, out, "hit rate")
		})
	}
}

func TestStress_Image(t *testing.T) {
	image := filepath.Join(t.TempDir(), "disk.img")
	args := []string{
		"--buffers", "4", "--block-size", "32",
		"--workers", "2", "--ops", "200", "--blocks", "16",
		"--image", image, "--rate", "1 MB", "--log-level", "error",
	}
	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "verified")
}

func TestStress_RejectsSettings(t *testing.T) {
	for _, test := range []struct {
		name string
		args []string
	}{
		{"more workers than buffers", []string{"--buffers", "2", "--workers", "3"}},
		{"unknown pattern", []string{"--pattern", "sawtooth"}},
		{"write ratio", []string{"--write-ratio", "1.5"}},
		{"block too small", []string{"--block-size", "8"}},
		{"bad rate", []string{"--rate", "fast"}},
		{"bad level", []string{"--log-level", "loud"}},
		{"positional", []string{"extra"}},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := execute(t, test.args...)
			assert.Error(t, err)
		})
	}
}

func TestSettings_WorkerLimit(t *testing.T) {
	set := settings{
		buffers: 2, buckets: 1, blockSize: stampSize,
		workers: 3, ops: 1, blocks: 1, pattern: patternUniform,
		logLevel: "info",
	}
	_, err := set.parse()
	require.ErrorIs(t, err, errWorkers)
}
