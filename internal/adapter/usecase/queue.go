package usecase

import (
	"sync"

	"github.com/google/uuid"
)

// queueEntry is one waiting request. Attempts counts failed promotion
// tries (insufficient balance at promotion time). Cycle counts completed
// charge/rollback rounds and scopes the ledger idempotency keys, so a
// retried promotion moves money again instead of replaying a consumed key.
// Misses counts promotion attempts that found no stored record; an entry
// whose queued write never lands is eventually dropped instead of blocking
// the head position.
type queueEntry struct {
	ID       uuid.UUID
	OwnerID  string
	Days     int
	Attempts int
	Cycle    int
	Misses   int
}

// WaitQueue is the FIFO of requests waiting for a slot. Positions are
// 1-based and contiguous: the head is position 1 and removal renumbers
// every later entry. Cardinality is small (tens, not thousands), so the
// O(n) slice operations are deliberate.
type WaitQueue struct {
	mu      sync.Mutex
	entries []queueEntry
}

// NewWaitQueue returns an empty queue.
func NewWaitQueue() *WaitQueue {
	return &WaitQueue{}
}

// Enqueue appends e and returns its 1-based position.
func (q *WaitQueue) Enqueue(e queueEntry) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
	return len(q.entries)
}

// PopHead removes and returns the earliest entry. The second return is
// false when the queue is empty. Safe to call concurrently from the
// sweeper and a cancellation path; an entry is popped at most once.
func (q *WaitQueue) PopHead() (queueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return queueEntry{}, false
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head, true
}

// PushFront puts e back at position 1. Used when a popped head could not
// be promoted and keeps its place for the next attempt.
func (q *WaitQueue) PushFront(e queueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append([]queueEntry{e}, q.entries...)
}

// Remove deletes the entry with the given id and reports whether it was
// present. Later entries shift down one position, keeping the sequence
// contiguous.
func (q *WaitQueue) Remove(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of waiting entries.
func (q *WaitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Positions returns the current id→position mapping, used to sync stored
// queue positions after a mutation.
func (q *WaitQueue) Positions() map[uuid.UUID]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	pos := make(map[uuid.UUID]int, len(q.entries))
	for i, e := range q.entries {
		pos[e.ID] = i + 1
	}
	return pos
}
