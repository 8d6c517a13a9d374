package client

import (
	"context"
	"io"
	"sync"

	"golang.org/x/time/rate"
)

// minBurst keeps the limiter burst no smaller than one copy buffer, so
// low rates still make progress in whole reads.
const minBurst = 32 * 1024

var (
	transferLimiterMu sync.RWMutex
	transferLimiter   *rate.Limiter
)

// SetGlobalTransferRateLimit caps the byte rate of all file transfers.
// Zero or negative removes the cap. Safe to call while transfers run;
// in-flight transfers pick up the new limiter on their next read.
func SetGlobalTransferRateLimit(bytesPerSecond int64) {
	transferLimiterMu.Lock()
	defer transferLimiterMu.Unlock()

	if bytesPerSecond <= 0 {
		transferLimiter = nil
		return
	}
	burst := int(bytesPerSecond)
	if burst < minBurst {
		burst = minBurst
	}
	transferLimiter = rate.NewLimiter(rate.Limit(bytesPerSecond), burst)
}

// limitedReader throttles reads against the global transfer limiter.
type limitedReader struct {
	ctx   context.Context
	under io.Reader
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	transferLimiterMu.RLock()
	lim := transferLimiter
	transferLimiterMu.RUnlock()

	if lim == nil {
		return lr.under.Read(p)
	}

	if burst := lim.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := lr.under.Read(p)
	if n > 0 {
		if waitErr := lim.WaitN(lr.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}

// wrapWithTransferRateLimit applies the global transfer cap to a reader.
// Without a cap the reader is returned unwrapped.
func wrapWithTransferRateLimit(ctx context.Context, r io.Reader) io.Reader {
	transferLimiterMu.RLock()
	lim := transferLimiter
	transferLimiterMu.RUnlock()

	if lim == nil {
		return r
	}
	return &limitedReader{ctx: ctx, under: r}
}
