package crawl

import "sync"

// Control carries the cooperative pause/stop flags shared between the
// orchestrator and the worker pool. Workers consult it at exactly one
// suspension point, between URL dequeues, so in-flight fetches always run to
// completion.
type Control struct {
	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	stopped bool
}

// NewControl returns a Control in the running (unpaused) state.
func NewControl() *Control {
	c := &Control{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Pause holds workers at their next suspension point.
func (c *Control) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume releases paused workers.
func (c *Control) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
	c.cond.Broadcast()
}

// Stop prevents further dequeues and wakes any paused workers so they can
// exit. Stop wins over pause.
func (c *Control) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.cond.Broadcast()
}

// Paused reports the pause flag.
func (c *Control) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Stopped reports the stop flag.
func (c *Control) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Await blocks while the job is paused and reports whether the worker may
// continue; false means the job was stopped. Waiting workers hold no URL and
// consume no CPU.
func (c *Control) Await() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.paused && !c.stopped {
		c.cond.Wait()
	}
	return !c.stopped
}
