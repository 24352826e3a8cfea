package position

import (
	"sync"
	"testing"
	"time"
)

func TestElapsedClock_EnsureIsIdempotent(t *testing.T) {
	c := NewElapsedClock(nil)
	defer c.Stop()

	since := time.Now()
	if !c.Ensure("p1", since) {
		t.Fatal("first Ensure should start the clock")
	}
	for i := 0; i < 3; i++ {
		if c.Ensure("p1", since.Add(time.Minute)) {
			t.Errorf("re-render %d started a duplicate clock", i)
		}
	}
	if c.Starts() != 1 {
		t.Errorf("expected 1 start, got %d", c.Starts())
	}

	if !c.Ensure("p2", since) {
		t.Error("new instance should restart the clock")
	}
	if id, ok := c.Running(); !ok || id != "p2" {
		t.Errorf("expected clock on p2, got %q running=%v", id, ok)
	}

	c.Stop()
	if _, ok := c.Running(); ok {
		t.Error("clock still running after Stop")
	}
	c.Stop()
}

func TestElapsedClock_TicksFromSeed(t *testing.T) {
	var mu sync.Mutex
	var got []time.Duration
	done := make(chan struct{}, 1)

	c := NewElapsedClock(func(id string, elapsed time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		if id != "p1" {
			t.Errorf("tick for unexpected id %q", id)
		}
		got = append(got, elapsed)
		if len(got) == 2 {
			done <- struct{}{}
		}
	})
	c.Interval = 5 * time.Millisecond
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Now = func() time.Time { return base.Add(42 * time.Second) }

	c.Ensure("p1", base)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("clock did not tick")
	}
	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	for _, d := range got[:2] {
		if d != 42*time.Second {
			t.Errorf("expected elapsed 42s, got %s", d)
		}
	}
}
