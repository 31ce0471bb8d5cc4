package main

import (
	"fmt"
	"math/rand"
)

type pattern uint8

const (
	uniform pattern = iota
	zipf
	loop
)

const (
	patternUniform = "uniform"
	patternZipf    = "zipf"
	patternLoop    = "loop"
)

func parsePattern(name string) (pattern, error) {
	switch name {
	case patternUniform:
		return uniform, nil
	case patternZipf:
		return zipf, nil
	case patternLoop:
		return loop, nil
	default:
		return 0, fmt.Errorf("pattern: unknown %q", name)
	}
}

func (p pattern) String() string {
	switch p {
	case uniform:
		return patternUniform
	case zipf:
		return patternZipf
	case loop:
		return patternLoop
	default:
		return fmt.Sprintf("pattern(%d)", uint8(p))
	}
}

// generator returns a source of block numbers below blocks.
// hot is the working set size used by the loop pattern.
func (p pattern) generator(rng *rand.Rand, blocks uint32, hot int) func() uint32 {
	switch p {
	case zipf:
		const (
			skew = 1.2
			bias = 1.0
		)
		z := rand.NewZipf(rng, skew, bias, uint64(blocks-1))
		return func() uint32 { return uint32(z.Uint64()) }
	case loop:
		const hotRatio = 0.9
		var (
			hotSize  = min(max(1, hot), int(blocks))
			coldSize = int(blocks) - hotSize
		)
		return func() uint32 {
			if coldSize == 0 || rng.Float64() < hotRatio {
				return uint32(rng.Intn(hotSize))
			}
			return uint32(hotSize + rng.Intn(coldSize))
		}
	default:
		return func() uint32 { return uint32(rng.Int63n(int64(blocks))) }
	}
}
