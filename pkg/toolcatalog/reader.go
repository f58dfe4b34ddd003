package toolcatalog

import (
	"context"
	"io"
)

// LimitedReader reads from an underlying stream until the context is done or
// more than limit bytes have been seen. Unlike io.LimitReader it reports the
// overflow as ErrSizeExceeded instead of a silent EOF, so blob stores can tell
// a complete stream from a truncated one.
type LimitedReader struct {
	ctx   context.Context
	r     io.Reader
	limit int64
	n     int64
}

// NewLimitedReader wraps r. A non-positive limit disables the ceiling.
func NewLimitedReader(ctx context.Context, r io.Reader, limit int64) *LimitedReader {
	return &LimitedReader{ctx: ctx, r: r, limit: limit}
}

func (l *LimitedReader) Read(p []byte) (int, error) {
	if err := l.ctx.Err(); err != nil {
		return 0, err
	}
	if l.limit <= 0 {
		n, err := l.r.Read(p)
		l.n += int64(n)
		return n, err
	}
	if l.n > l.limit {
		return 0, ErrSizeExceeded
	}
	// Read one byte past the limit so an exact-size stream is not rejected.
	if max := l.limit - l.n + 1; int64(len(p)) > max {
		p = p[:max]
	}
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.limit {
		return n - int(l.n-l.limit), ErrSizeExceeded
	}
	return n, err
}

// N returns the number of bytes accepted so far.
func (l *LimitedReader) N() int64 {
	if l.limit > 0 && l.n > l.limit {
		return l.limit
	}
	return l.n
}

// Exceeded reports whether the stream ran past the limit.
func (l *LimitedReader) Exceeded() bool {
	return l.limit > 0 && l.n > l.limit
}

// countingReader records how many bytes have been pulled through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
