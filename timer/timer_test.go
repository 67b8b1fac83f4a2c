package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_RunsCallback(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	done := make(chan struct{})
	m.Add(0, 0, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Callback never ran")
	}
}

func TestManager_Remove(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Bool
	id := m.Add(time.Second, 0, func() { fired.Store(true) })
	m.Remove(id)

	time.Sleep(1200 * time.Millisecond)
	if fired.Load() {
		t.Fatal("Removed task must not fire")
	}
}

func TestManager_IntervalRepeats(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var runs atomic.Int64
	m.Add(0, 100*time.Millisecond, func() { runs.Add(1) })

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if runs.Load() >= 3 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Expected at least 3 runs, got %d", runs.Load())
}

func TestManager_ManySimultaneousDueTasks(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	const n = 2000
	var done sync.WaitGroup
	done.Add(n)
	for i := 0; i < n; i++ {
		m.Add(0, 0, func() { done.Done() })
	}

	finished := make(chan struct{})
	go func() {
		done.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Due tasks did not all run")
	}
}
