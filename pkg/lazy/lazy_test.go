package lazy

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueComputesOnce(t *testing.T) {
	var calls atomic.Int32
	v := NewValue(func() (int, error) {
		calls.Add(1)
		return 42, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := v.Get()
			assert.NoError(t, err)
			assert.Equal(t, 42, got)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestValueReset(t *testing.T) {
	calls := 0
	v := NewValue(func() (int, error) {
		calls++
		return calls, nil
	})

	first, _ := v.Get()
	v.Reset()
	second, _ := v.Get()
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestSeqDrivesToCompletion(t *testing.T) {
	items := []string{"a", "b", "c"}
	i := 0
	seq := NewSeq(func() (string, bool, error) {
		if i >= len(items) {
			return "", false, nil
		}
		out := items[i]
		i++
		return out, true, nil
	})

	got, err := seq.Collect()
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestSeqStopsOnCancellation(t *testing.T) {
	produced := 0
	seq := NewSeq(func() (int, bool, error) {
		produced++
		return produced, true, nil
	})

	var seen int
	err := seq.ForEach(func(int) error {
		seen++
		return nil
	}, func() bool { return seen >= 5 })
	require.NoError(t, err)
	assert.Equal(t, 5, seen, "cancellation check halts an infinite producer")
}

func TestSeqPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	seq := NewSeq(func() (int, bool, error) {
		return 0, false, boom
	})
	_, err := seq.Collect()
	assert.ErrorIs(t, err, boom)
}
