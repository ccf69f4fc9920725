// Package queue provides a lock-free Multi-Producer Single-Consumer (MPSC) queue.
//
// Features and Guarantees:
//
//   - Lock-Free writes: producers append with atomic operations only
//   - Unbounded Size: Push never blocks, the queue grows as needed
//   - Thread-Safe writes: any number of goroutines may Push() concurrently
//   - Single Consumer: one goroutine consumes values via the Recv() channel
//   - Per-Producer FIFO: items pushed by one goroutine are delivered in push
//     order. Items of different producers are ordered by which Push completed
//     first.
//
// Shutdown:
//
//	Close rejects further pushes and delivers everything already queued
//	before the Recv() channel is closed. Abort additionally discards items
//	that were not yet received, so a consumer that stopped reading does not
//	leave the delivery goroutine behind.
//
// Usage:
//
//	q := queue.NewMPSC[func()]()
//	go func() {
//	    for task := range q.Recv() {
//	        (*task)()
//	    }
//	}()
//	fn := func() { ... }
//	q.Push(&fn)
//	q.Close()
package queue
