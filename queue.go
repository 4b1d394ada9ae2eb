package kplex

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// DefaultQueueSize is the qsize used when a config/CLI doesn't specify
// one (DEFQUEUESZ in the original design).
const DefaultQueueSize = 128

// MinQueueSize is the smallest permitted queue size.
const MinQueueSize = 2

// Queue is a bounded FIFO of SenBlk values with a two-level allocation
// scheme (a free-list feeding an in-use chain) and a "push nil to
// close" end-of-stream protocol. Pushing never blocks: once the
// free-list is empty, a push steals the oldest enqueued unit rather
// than waiting for a consumer, so a slow or stalled reader can never
// back-pressure a producer.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots []SenBlk // backing store, allocated once

	free *SenBlk // free-list head
	head *SenBlk // FIFO head
	tail *SenBlk // FIFO tail

	active bool

	overruns uint64 // optional; count of dropped-oldest events
}

// NewQueue allocates a Queue with the given number of slots.
func NewQueue(size int) (*Queue, error) {
	if size < MinQueueSize {
		return nil, errors.Errorf("kplex: queue size must be at least %d, got %d", MinQueueSize, size)
	}

	q := &Queue{
		slots:  make([]SenBlk, size),
		active: true,
	}
	q.cond = sync.NewCond(&q.mu)

	// Link every slot onto the free-list.
	for i := range q.slots {
		q.slots[i].next = q.free
		q.free = &q.slots[i]
	}

	return q, nil
}

// Push enqueues unit, copying its fields into one of the queue's own
// slots. If the free-list is empty, the oldest enqueued unit is
// dropped to make room (tail-preserving loss: the newest data always
// wins). Push never blocks.
//
// Pushing nil closes the queue: active is set false and any blocked
// Next callers are woken to observe end-of-stream. No unit is
// enqueued. Closing an already-closed queue is a harmless no-op.
func (q *Queue) Push(unit *SenBlk) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if unit == nil {
		q.active = false
		q.cond.Broadcast()
		return
	}

	var slot *SenBlk
	if q.free != nil {
		slot = q.free
		q.free = slot.next
	} else {
		// Overrun: steal the current head.
		slot = q.head
		q.head = slot.next
		if q.head == nil {
			q.tail = nil
		}
		atomic.AddUint64(&q.overruns, 1)
	}

	slot.len = unit.len
	slot.src = unit.src
	copy(slot.data[:slot.len], unit.data[:unit.len])
	slot.next = nil

	if q.tail == nil {
		q.head = slot
	} else {
		q.tail.next = slot
	}
	q.tail = slot

	q.cond.Broadcast()
}

// Next removes and returns the head of the queue, blocking while the
// queue is empty and active. It returns nil once the queue is empty
// and closed (end-of-stream) -- a state that, once observed, is
// permanent: no further calls to Next will return a non-nil unit. The
// returned SenBlk is owned by the caller until passed to Free.
func (q *Queue) Next() *SenBlk {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == nil && q.active {
		q.cond.Wait()
	}

	if q.head == nil {
		return nil
	}

	slot := q.head
	q.head = slot.next
	if q.head == nil {
		q.tail = nil
	}
	slot.next = nil
	return slot
}

// Free returns slot to the free-list. Slots may be freed in any
// order.
func (q *Queue) Free(slot *SenBlk) {
	if slot == nil {
		return
	}
	q.mu.Lock()
	slot.next = q.free
	q.free = slot
	q.mu.Unlock()
}

// Overruns reports how many pushes dropped the oldest enqueued unit
// for lack of a free slot. Tracking this is optional per the design;
// kplex keeps it because it is cheap and useful for diagnosing a
// chronically slow output.
func (q *Queue) Overruns() uint64 {
	return atomic.LoadUint64(&q.overruns)
}
