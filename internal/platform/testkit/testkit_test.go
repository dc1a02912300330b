package testkit

import (
	"sync/atomic"
	"testing"
	"time"
)

var dialTimeout = 5 * time.Second

func TestMustPanicAndNotPanic(t *testing.T) {
	MustPanic(t, func() { panic("boom") })
	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	MustContain(t, "URL in blacklist!", "blacklist")
}

func TestSwapRestores(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Swap(t, &dialTimeout, time.Millisecond)
		if dialTimeout != time.Millisecond {
			t.Fatalf("swap not applied")
		}
	})
	if dialTimeout != 5*time.Second {
		t.Fatalf("swap not restored: %v", dialTimeout)
	}
}

func TestEventually(t *testing.T) {
	var n atomic.Int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		n.Store(1)
	}()
	Eventually(t, time.Second, 5*time.Millisecond, func() bool { return n.Load() == 1 }, "flag set")
}
