package queue

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is a single element of the linked list
type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// MPSC is a lock-free multi-producer single-consumer queue. Producers append
// to a linked list with CAS; a delivery goroutine moves the items to the
// Recv() channel.
type MPSC[T any] struct {
	head atomic.Pointer[node[T]]
	tail atomic.Pointer[node[T]]
	out  chan *T

	closed  atomic.Bool
	pushing atomic.Int64 // producers between the closed check and the append
	abort   chan struct{}
	once    sync.Once

	// wakes the delivery goroutine
	mu   sync.Mutex
	cond *sync.Cond
}

// NewMPSC creates a queue and starts its delivery goroutine
func NewMPSC[T any]() *MPSC[T] {
	// sentinel node, head always points to the last delivered node
	sentinel := &node[T]{}

	q := &MPSC[T]{
		out:   make(chan *T),
		abort: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.deliver()
	return q
}

// Push adds an item to the queue. It returns false if value is nil or the
// queue is closed.
func (q *MPSC[T]) Push(value *T) bool {
	if value == nil {
		return false
	}

	q.pushing.Add(1)
	if q.closed.Load() {
		q.pushing.Add(-1)
		q.signal()
		return false
	}

	newNode := &node[T]{value: value}
	var backoff uint8

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// may fail if another producer already moved the tail
				q.tail.CompareAndSwap(tailNode, newNode)
				q.pushing.Add(-1)
				q.signal()
				return true
			}
		} else {
			// help a producer that appended but has not moved the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// spin first, then yield under heavy contention
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// signal wakes the delivery goroutine. The lock pairs with the check in
// waitForItems so a wake-up is never lost.
func (q *MPSC[T]) signal() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// drained reports whether no item is queued and none can be added anymore
func (q *MPSC[T]) drained() bool {
	return q.head.Load().next.Load() == nil && q.closed.Load() && q.pushing.Load() == 0
}

// waitForItems blocks until an item is queued or the queue is drained
func (q *MPSC[T]) waitForItems() {
	q.mu.Lock()
	for q.head.Load().next.Load() == nil && !q.drained() {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

// deliver sends the queued items to the out channel until the queue is
// drained or aborted
func (q *MPSC[T]) deliver() {
	defer close(q.out)

	for {
		q.waitForItems()

		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}

			value := next.value
			q.head.Store(next)

			select {
			case q.out <- value:
			case <-q.abort:
				return
			}

			// release the value, next is the new sentinel
			next.value = nil
		}

		if q.drained() {
			return
		}
	}
}

// Recv returns the channel the items are delivered on. It is closed once
// the queue was closed and all items were delivered, or after Abort.
func (q *MPSC[T]) Recv() <-chan *T {
	return q.out
}

// Close rejects further pushes. Items already queued are still delivered.
func (q *MPSC[T]) Close() {
	q.closed.Store(true)
	q.signal()
}

// Abort closes the queue and drops all items not yet received
func (q *MPSC[T]) Abort() {
	q.closed.Store(true)
	q.once.Do(func() { close(q.abort) })
	q.signal()
}

// IsClosed returns true if the queue is closed
func (q *MPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns an approximate count of the queued items. It walks the list
// and is meant for tests and debugging.
func (q *MPSC[T]) Len() int {
	count := 0
	current := q.head.Load()
	for {
		next := current.next.Load()
		if next == nil {
			return count
		}
		count++
		current = next
	}
}
