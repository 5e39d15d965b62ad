package usecase

import "sync"

// SlotAllocator tracks how many requests are active against a fixed
// capacity. It is the only place the active count is mutated. TryAdmit and
// Release are linearizable: with one slot remaining and two concurrent
// callers, exactly one is admitted.
type SlotAllocator struct {
	mu       sync.Mutex
	capacity int
	active   int
}

// NewSlotAllocator creates an allocator with the given capacity.
func NewSlotAllocator(capacity int) *SlotAllocator {
	return &SlotAllocator{capacity: capacity}
}

// TryAdmit reserves one slot if any is free and reports whether it did.
func (s *SlotAllocator) TryAdmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active >= s.capacity {
		return false
	}
	s.active++
	return true
}

// Release frees one slot. Releasing below zero is a programming error and
// panics rather than silently corrupting the count.
func (s *SlotAllocator) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == 0 {
		panic("slot allocator: release without admit")
	}
	s.active--
}

// Active returns the current number of occupied slots.
func (s *SlotAllocator) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Capacity returns the fixed slot capacity.
func (s *SlotAllocator) Capacity() int {
	return s.capacity
}
