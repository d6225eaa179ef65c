// Package chunk paces a byte stream to a fixed number of bytes per interval.
//
// Doorbird devices accept at most 8 KiB of audio per second. A Producer hands
// out one chunk at a time and waits one interval before every read that
// follows a non-empty chunk, so throughput never exceeds Size bytes per
// Interval. The first chunk is produced without delay. The read that
// discovers the end of the stream still waits, so an L-byte stream cut into
// C-byte chunks costs exactly ceil(L/C) intervals.
package chunk

import (
	"context"
	"errors"
	"io"
	"time"
)

const (
	// DefaultSize is the number of bytes per chunk.
	DefaultSize = 8 * 1024
	// DefaultInterval is the pause after each non-empty chunk.
	DefaultInterval = time.Second
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-clock Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Option configures a Producer.
type Option func(*Producer)

// WithSize sets the chunk size. Non-positive values keep DefaultSize.
func WithSize(n int) Option {
	return func(p *Producer) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithInterval sets the pause between chunks. Negative values keep DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(p *Producer) {
		if d >= 0 {
			p.interval = d
		}
	}
}

// WithSleeper replaces the clock, for tests.
func WithSleeper(s Sleeper) Option {
	return func(p *Producer) {
		if s != nil {
			p.sleep = s
		}
	}
}

// Producer yields rate-limited chunks from src. It is single use: once it
// has returned an error (io.EOF included) every later call returns the same.
type Producer struct {
	ctx      context.Context
	src      io.Reader
	size     int
	interval time.Duration
	sleep    Sleeper

	buf     []byte
	pending []byte // unread tail of the current chunk, for Read
	pause   bool
	err     error

	chunks int
	bytes  int64
	waited time.Duration
}

// NewProducer returns a Producer reading from src. ctx only scopes the
// pauses between chunks; src is read without it.
func NewProducer(ctx context.Context, src io.Reader, opts ...Option) *Producer {
	p := &Producer{
		ctx:      ctx,
		src:      src,
		size:     DefaultSize,
		interval: DefaultInterval,
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.buf = make([]byte, p.size)
	return p
}

// Next returns the next chunk. The slice is only valid until the next call.
// It returns io.EOF once src is exhausted.
func (p *Producer) Next() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.pause {
		p.pause = false
		if p.interval > 0 {
			if err := p.sleep(p.ctx, p.interval); err != nil {
				p.err = err
				return nil, err
			}
			p.waited += p.interval
		}
	}

	n, err := io.ReadFull(p.src, p.buf)
	switch {
	case n > 0:
		// A short final chunk is still a chunk; the end is reported by the next call.
		p.pause = true
		p.chunks++
		p.bytes += int64(n)
		return p.buf[:n], nil
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		p.err = io.EOF
	default:
		p.err = err
	}
	return nil, p.err
}

// Read implements io.Reader on top of Next, so a Producer can be used
// directly as an HTTP request body.
func (p *Producer) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if len(p.pending) == 0 {
		chunk, err := p.Next()
		if err != nil {
			return 0, err
		}
		p.pending = chunk
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Stats reports what the producer has handed out so far.
type Stats struct {
	Chunks int
	Bytes  int64
	Waited time.Duration
}

// Stats returns the chunk and byte counts and the total time spent pausing.
func (p *Producer) Stats() Stats {
	return Stats{Chunks: p.chunks, Bytes: p.bytes, Waited: p.waited}
}
