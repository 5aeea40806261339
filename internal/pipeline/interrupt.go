package pipeline

import (
	"sync"
	"sync/atomic"
)

// Controller propagates an external interrupt signal into the pipeline.
// Interrupt is idempotent and safe from any goroutine; the pipeline
// observes the flag cooperatively at its poll points. The flag has a
// single conceptual writer (the interrupt observer) and many readers
type Controller struct {
	interrupted atomic.Bool
	once        sync.Once
	done        chan struct{}
}

// NewController creates a new cancellation controller
func NewController() *Controller {
	return &Controller{
		done: make(chan struct{}),
	}
}

// Interrupt signals the pipeline to abandon remaining work
func (c *Controller) Interrupt() {
	c.interrupted.Store(true)
	c.once.Do(func() {
		close(c.done)
	})
}

// Interrupted reports whether the interrupt signal has fired
func (c *Controller) Interrupted() bool {
	return c.interrupted.Load()
}

// Done returns a channel closed when the interrupt signal fires
func (c *Controller) Done() <-chan struct{} {
	return c.done
}
