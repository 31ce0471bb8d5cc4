package device

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles the byte throughput of another device.
// Each transfer waits until the limiter admits a full block.
type Limited struct {
	next    BlockDevice
	limiter *rate.Limiter
}

// NewLimited wraps next so that at most bytesPerSecond bytes
// move per second, with bursts of up to burst bytes.
// burst must be at least one block; a smaller burst
// makes every transfer fail.
func NewLimited(next BlockDevice, bytesPerSecond float64, burst int) *Limited {
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), burst),
	}
}

// Transfer waits for throughput budget, then forwards the transfer.
func (l *Limited) Transfer(dev, block uint32, data []byte, write bool) error {
	if err := l.limiter.WaitN(context.Background(), len(data)); err != nil {
		return fmt.Errorf("throttle block %d of device %d: %w", block, dev, err)
	}
	return l.next.Transfer(dev, block, data, write)
}
