package queue

import (
	"sync"
	"testing"
	"time"
)

// TestBasicOperations tests push and receive in a single goroutine
func TestBasicOperations(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Close()

	for i := 0; i < 10; i++ {
		i := i
		if !q.Push(&i) {
			t.Fatalf("Push(%d) failed", i)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case v := <-q.Recv():
			if *v != i {
				t.Errorf("received %d, want %d", *v, i)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for item %d", i)
		}
	}

	select {
	case v := <-q.Recv():
		t.Errorf("queue should be empty, got %d", *v)
	case <-time.After(10 * time.Millisecond):
	}
}

// TestPerProducerOrder tests that every producer's items arrive in push order
func TestPerProducerOrder(t *testing.T) {
	type item struct{ producer, seq int }

	q := NewMPSC[item]()

	const producers, perProducer = 16, 2000
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if !q.Push(&item{producer: p, seq: i}) {
					t.Errorf("Push() failed for producer %d", p)
					return
				}
			}
		}(p)
	}

	go func() {
		wg.Wait()
		q.Close()
	}()

	next := make([]int, producers)
	received := 0
	timeout := time.After(10 * time.Second)
	for {
		select {
		case v, ok := <-q.Recv():
			if !ok {
				if received != producers*perProducer {
					t.Fatalf("received %d items, want %d", received, producers*perProducer)
				}
				for p, n := range next {
					if n != perProducer {
						t.Errorf("producer %d: received %d items, want %d", p, n, perProducer)
					}
				}
				return
			}
			if v.seq != next[v.producer] {
				t.Fatalf("producer %d: received seq %d, want %d", v.producer, v.seq, next[v.producer])
			}
			next[v.producer]++
			received++
		case <-timeout:
			t.Fatalf("timeout after %d items", received)
		}
	}
}

// TestCloseDeliversPending tests that Close keeps queued items and closes Recv afterwards
func TestCloseDeliversPending(t *testing.T) {
	q := NewMPSC[int]()
	for i := 0; i < 100; i++ {
		i := i
		q.Push(&i)
	}
	q.Close()

	if !q.IsClosed() {
		t.Errorf("IsClosed() = false after Close()")
	}
	v := 42
	if q.Push(&v) {
		t.Errorf("Push() after Close() succeeded")
	}

	got := 0
	for v := range q.Recv() {
		if *v != got {
			t.Errorf("received %d, want %d", *v, got)
		}
		got++
	}
	if got != 100 {
		t.Errorf("received %d items after Close(), want 100", got)
	}
}

// TestAbortDropsPending tests that Abort closes Recv without a reader draining it
func TestAbortDropsPending(t *testing.T) {
	q := NewMPSC[int]()
	for i := 0; i < 100; i++ {
		i := i
		q.Push(&i)
	}
	q.Abort()
	q.Abort()

	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-q.Recv():
			if !ok {
				return
			}
		case <-timeout:
			t.Fatalf("Recv() not closed after Abort()")
		}
	}
}

// TestPushNil tests that nil values are rejected
func TestPushNil(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Close()
	if q.Push(nil) {
		t.Errorf("Push(nil) succeeded")
	}
}

// TestLen tests the approximate length while nothing is received
func TestLen(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Abort()

	for i := 0; i < 5; i++ {
		i := i
		q.Push(&i)
	}

	// the delivery goroutine holds at most one item while blocked on Recv
	deadline := time.Now().Add(time.Second)
	for q.Len() != 4 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := q.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
}

// TestCloseWhilePushing tests that concurrent Close and Push neither lose
// accepted items nor hang the delivery goroutine
func TestCloseWhilePushing(t *testing.T) {
	for round := 0; round < 50; round++ {
		q := NewMPSC[int]()

		var mu sync.Mutex
		accepted := 0
		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					i := i
					if q.Push(&i) {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}
			}()
		}
		q.Close()

		done := make(chan int)
		go func() {
			n := 0
			for range q.Recv() {
				n++
			}
			done <- n
		}()

		wg.Wait()
		select {
		case n := <-done:
			mu.Lock()
			if n != accepted {
				t.Errorf("round %d: received %d items, %d were accepted", round, n, accepted)
			}
			mu.Unlock()
		case <-time.After(5 * time.Second):
			t.Fatalf("round %d: Recv() not closed", round)
		}
	}
}
