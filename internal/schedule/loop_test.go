package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoopTickRunsFramesThenHooks(t *testing.T) {
	l := NewLoop()
	var order []string

	l.OnTick(func() { order = append(order, "hook") })
	l.RequestFrame(func() { order = append(order, "a") })
	id := l.RequestFrame(func() { order = append(order, "cancelled") })
	l.RequestFrame(func() { order = append(order, "b") })
	l.CancelFrame(id)

	l.Tick()

	want := []string{"a", "b", "hook"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestLoopFrameRequestedDuringTickWaits(t *testing.T) {
	l := NewLoop()
	calls := 0
	l.RequestFrame(func() {
		calls++
		l.RequestFrame(func() { calls++ })
	})

	l.Tick()
	if calls != 1 {
		t.Fatalf("calls after first tick = %d, want 1", calls)
	}
	l.Tick()
	if calls != 2 {
		t.Errorf("calls after second tick = %d, want 2", calls)
	}
}

func TestLoopRunPostAndStop(t *testing.T) {
	l := NewLoop(WithFPS(200))
	done := make(chan error, 1)

	go func() {
		done <- l.Run(context.Background())
	}()

	ran := make(chan struct{})
	if !l.Post(func() { close(ran) }) {
		t.Fatal("Post should succeed while running")
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted function did not run")
	}

	frame := make(chan struct{})
	l.Post(func() {
		l.RequestFrame(func() { close(frame) })
	})
	select {
	case <-frame:
	case <-time.After(2 * time.Second):
		t.Fatal("frame callback did not run")
	}

	l.Stop()
	l.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	if l.Post(func() {}) {
		t.Error("Post after Stop should fail")
	}
}

func TestLoopRunContextCancel(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}

func TestLoopWithFPS(t *testing.T) {
	l := NewLoop(WithFPS(50))
	if l.interval != 20*time.Millisecond {
		t.Errorf("interval = %v, want 20ms", l.interval)
	}
	l = NewLoop(WithFPS(0))
	if l.interval != time.Second/DefaultFPS {
		t.Errorf("interval = %v, want default", l.interval)
	}
}

func TestLoopPanicHandler(t *testing.T) {
	var values []any
	l := NewLoop(WithFPS(200), WithPanicHandler(func(v any, stack []byte) {
		if len(stack) == 0 {
			t.Error("empty stack")
		}
		values = append(values, v)
	}))

	ran := false
	l.RequestFrame(func() { panic("frame") })
	l.RequestFrame(func() { ran = true })
	l.Tick()
	if !ran {
		t.Error("frame after a panicking frame did not run")
	}

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	l.Post(func() { panic("post") })
	after := make(chan struct{})
	l.Post(func() { close(after) })
	select {
	case <-after:
	case <-time.After(time.Second):
		t.Fatal("loop stopped after a panicking post")
	}
	l.Stop()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}

	if diff := cmp.Diff([]any{"frame", "post"}, values); diff != "" {
		t.Errorf("recovered values mismatch (-want +got):\n%s", diff)
	}
}
