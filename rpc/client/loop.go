package client

import (
	"sync"

	"github.com/ValentinKolb/connectkit/lib/queue"
)

// eventLoop runs tasks one at a time. Tasks posted by the same goroutine run
// in the order they were posted.
type eventLoop struct {
	tasks *queue.MPSC[func()]
	done  chan struct{}
	once  sync.Once
}

func newEventLoop() *eventLoop {
	l := &eventLoop{
		tasks: queue.NewMPSC[func()](),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

// Post schedules fn on the loop. It returns false after Close.
func (l *eventLoop) Post(fn func()) bool {
	return l.tasks.Push(&fn)
}

// Close stops the loop after all tasks posted so far have run. It must not
// be called from a task.
func (l *eventLoop) Close() {
	l.once.Do(l.tasks.Close)
	<-l.done
}

func (l *eventLoop) run() {
	defer close(l.done)
	for task := range l.tasks.Recv() {
		(*task)()
	}
}
