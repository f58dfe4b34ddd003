package toolcatalog

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedReader(t *testing.T) {
	ctx := context.Background()

	t.Run("UnderLimit", func(t *testing.T) {
		r := NewLimitedReader(ctx, bytes.NewReader([]byte("hello")), 10)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
		assert.Equal(t, int64(5), r.N())
		assert.False(t, r.Exceeded())
	})

	t.Run("ExactlyAtLimit", func(t *testing.T) {
		r := NewLimitedReader(ctx, bytes.NewReader(make([]byte, 10)), 10)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Len(t, got, 10)
		assert.False(t, r.Exceeded())
	})

	t.Run("OverLimit", func(t *testing.T) {
		r := NewLimitedReader(ctx, bytes.NewReader(make([]byte, 11)), 10)
		got, err := io.ReadAll(r)
		assert.ErrorIs(t, err, ErrSizeExceeded)
		assert.LessOrEqual(t, len(got), 10)
		assert.Equal(t, int64(10), r.N())
		assert.True(t, r.Exceeded())
	})

	t.Run("Unlimited", func(t *testing.T) {
		r := NewLimitedReader(ctx, bytes.NewReader(make([]byte, 1000)), 0)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Len(t, got, 1000)
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := io.ReadAll(NewLimitedReader(cctx, bytes.NewReader([]byte("x")), 10))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
