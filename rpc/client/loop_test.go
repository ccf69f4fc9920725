package client

import (
	"sync"
	"testing"
	"time"
)

// TestEventLoopOrder tests that tasks from many goroutines run one at a time in post order per goroutine
func TestEventLoopOrder(t *testing.T) {
	loop := newEventLoop()

	const producers, perProducer = 8, 500
	last := make([]int, producers)
	running := 0
	violations := 0

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 1; i <= perProducer; i++ {
				i := i
				loop.Post(func() {
					running++
					if running != 1 || last[p] != i-1 {
						violations++
					}
					last[p] = i
					running--
				})
			}
		}(p)
	}
	wg.Wait()
	loop.Close()

	if violations != 0 {
		t.Errorf("%d ordering or overlap violations", violations)
	}
	for p, got := range last {
		if got != perProducer {
			t.Errorf("producer %d: last task %d, want %d", p, got, perProducer)
		}
	}
}

// TestEventLoopClose tests that Close runs pending tasks and rejects new ones
func TestEventLoopClose(t *testing.T) {
	loop := newEventLoop()

	// hold the loop so the following tasks are still queued when Close is called
	release := make(chan struct{})
	loop.Post(func() { <-release })

	ran := 0
	for i := 0; i < 10; i++ {
		loop.Post(func() { ran++ })
	}

	closed := make(chan struct{})
	go func() {
		loop.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatalf("Close() returned while a task was running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatalf("Close() did not return")
	}
	if ran != 10 {
		t.Errorf("ran %d tasks, want 10", ran)
	}
	if loop.Post(func() {}) {
		t.Errorf("Post() after Close() succeeded")
	}
	loop.Close()
}
