package semaphore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	require.NoError(t, s.Acquire(ctx))
	require.NoError(t, s.Acquire(ctx))
	assert.Equal(t, 0, s.Available())
	assert.False(t, s.TryAcquire())

	s.Release()
	assert.Equal(t, 1, s.Available())
	assert.True(t, s.TryAcquire())
}

func TestAcquireRespectsContext(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClose(t *testing.T) {
	s := New(1)
	s.Close()

	assert.ErrorIs(t, s.Acquire(context.Background()), ErrClosed)
	assert.False(t, s.TryAcquire())
	assert.Equal(t, 0, s.Available())
}
