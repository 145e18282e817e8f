package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrReadTimeout is returned by Pump when no chunk arrives within the
// configured per-chunk timeout.
var ErrReadTimeout = errors.New("stream: no data received within read timeout")

// DefaultChunkSize is the read buffer size used by Pump.
const DefaultChunkSize = 32 * 1024

// PumpOptions tunes Pump.
type PumpOptions struct {
	// ChunkTimeout bounds the wait for each individual read. Zero disables it.
	ChunkTimeout time.Duration
	// ChunkSize is the read buffer size. Zero means DefaultChunkSize.
	ChunkSize int
}

// RecordFunc receives one decoded record. Returning false stops the pump.
type RecordFunc func(record string) bool

// Pump reads body chunk by chunk, decodes every chunk with dec and hands the
// resulting records to fn in arrival order. The unterminated tail is flushed
// when body reaches EOF.
//
// Cancelling ctx abandons the read: body is closed, no further records are
// delivered and Pump returns nil. The same happens when fn returns false.
// A per-chunk timeout also closes body but is reported as ErrReadTimeout.
func Pump(ctx context.Context, body io.ReadCloser, dec *Decoder, opts PumpOptions, fn RecordFunc) error {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	var (
		mu       sync.Mutex
		closed   bool
		armed    uint64
		timedOut bool
	)
	closeBody := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			_ = body.Close()
		}
	}
	defer closeBody()

	stop := context.AfterFunc(ctx, closeBody)
	defer stop()

	// arm starts the deadline for one read. disarm reports whether it expired
	// first; whichever of the two takes mu first decides.
	var gen uint64
	arm := func() (disarm func() bool) {
		if opts.ChunkTimeout <= 0 {
			return func() bool { return false }
		}
		mu.Lock()
		gen++
		cur := gen
		armed = cur
		mu.Unlock()
		t := time.AfterFunc(opts.ChunkTimeout, func() {
			mu.Lock()
			fire := armed == cur
			if fire {
				armed = 0
				timedOut = true
			}
			mu.Unlock()
			if fire {
				closeBody()
			}
		})
		return func() bool {
			t.Stop()
			mu.Lock()
			defer mu.Unlock()
			if armed == cur {
				armed = 0
			}
			return timedOut
		}
	}

	buf := make([]byte, size)
	for {
		// The timeout covers the wait for data only, not record handling.
		disarm := arm()
		n, err := body.Read(buf)
		expired := disarm()
		if ctx.Err() != nil {
			return nil
		}
		if n > 0 {
			for _, rec := range dec.Decode(buf[:n]) {
				if !fn(rec) {
					return nil
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		}
		if errors.Is(err, io.EOF) {
			for _, rec := range dec.Flush() {
				if !fn(rec) {
					return nil
				}
			}
			return nil
		}
		// A chunk that lost the race to the deadline is still delivered
		// above, but the body is closed by now.
		if expired {
			return ErrReadTimeout
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("stream: read: %w", err)
	}
}
