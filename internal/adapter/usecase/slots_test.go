package usecase

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotAllocatorBounds(t *testing.T) {
	s := NewSlotAllocator(2)
	assert.True(t, s.TryAdmit())
	assert.True(t, s.TryAdmit())
	assert.False(t, s.TryAdmit())
	s.Release()
	assert.True(t, s.TryAdmit())
	assert.Equal(t, 2, s.Active())
}

// TestSlotAllocatorConcurrentBoundary admits from many goroutines against
// a single slot; exactly one must win.
func TestSlotAllocatorConcurrentBoundary(t *testing.T) {
	s := NewSlotAllocator(1)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryAdmit() {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, admitted.Load())
	assert.Equal(t, 1, s.Active())
}

func TestSlotAllocatorReleasePanicsBelowZero(t *testing.T) {
	s := NewSlotAllocator(1)
	assert.Panics(t, func() { s.Release() })
}
