package position

import (
	"sync"
	"time"
)

// TickFunc receives the elapsed time of the instance the clock is running for.
type TickFunc func(id string, elapsed time.Duration)

// ElapsedClock ticks once per interval for a single open-position instance.
// At most one ticking goroutine exists at a time.
type ElapsedClock struct {
	Interval time.Duration
	Now      func() time.Time

	mu     sync.Mutex
	id     string
	since  time.Time
	stop   chan struct{}
	onTick TickFunc
	starts int
}

// NewElapsedClock creates a one-second clock that calls onTick on every tick.
func NewElapsedClock(onTick TickFunc) *ElapsedClock {
	return &ElapsedClock{Interval: time.Second, Now: time.Now, onTick: onTick}
}

// Ensure makes sure the clock runs for id seeded at since. It is a no-op when the
// clock already runs for id; a different id restarts it. Returns true if a new
// clock was started.
func (c *ElapsedClock) Ensure(id string, since time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil && c.id == id {
		return false
	}
	c.stopLocked()

	c.id = id
	c.since = since
	c.stop = make(chan struct{})
	c.starts++
	go c.run(id, since, c.stop)
	return true
}

// Stop halts the clock. Safe to call when nothing runs.
func (c *ElapsedClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Running returns the instance the clock currently ticks for.
func (c *ElapsedClock) Running() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id, c.stop != nil
}

// Starts returns how many ticking goroutines have been started so far.
func (c *ElapsedClock) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

func (c *ElapsedClock) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.id = ""
	c.since = time.Time{}
}

func (c *ElapsedClock) run(id string, since time.Time, stop <-chan struct{}) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.onTick != nil {
				c.onTick(id, c.Now().Sub(since))
			}
		}
	}
}
