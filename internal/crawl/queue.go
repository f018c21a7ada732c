package crawl

// Queue is the fixed job queue of URL tasks. All tasks are enqueued at job
// start, so dequeue exhaustion is the pool's normal termination condition.
type Queue struct {
	ch chan Task
}

// NewQueue builds a queue pre-filled with one task per URL.
func NewQueue(urls []string) *Queue {
	ch := make(chan Task, len(urls))
	for _, url := range urls {
		ch <- Task{URL: url}
	}
	close(ch)
	return &Queue{ch: ch}
}

// TryDequeue pops the next task without blocking; ok is false once the queue
// is drained.
func (q *Queue) TryDequeue() (Task, bool) {
	task, ok := <-q.ch
	return task, ok
}

// Len reports the number of tasks not yet dequeued.
func (q *Queue) Len() int {
	return len(q.ch)
}
