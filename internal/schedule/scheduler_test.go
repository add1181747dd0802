package schedule

import "testing"

func TestSchedulerCoalesces(t *testing.T) {
	frames := NewManualFrames()
	calls := 0
	s := New(frames, func() { calls++ })

	if !s.Schedule() {
		t.Fatal("first Schedule should request a frame")
	}
	for i := 0; i < 10; i++ {
		if s.Schedule() {
			t.Fatal("Schedule while pending should not request another frame")
		}
	}
	if frames.Pending() != 1 {
		t.Fatalf("pending frames = %d, want 1", frames.Pending())
	}

	frames.Flush()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if s.Pending() {
		t.Error("scheduler should not be pending after the frame ran")
	}
}

func TestSchedulerRescheduleFromCallback(t *testing.T) {
	frames := NewManualFrames()
	calls := 0
	var s *Scheduler
	s = New(frames, func() {
		calls++
		if calls == 1 {
			s.Schedule()
		}
	})

	s.Schedule()
	frames.Flush()

	if !s.Pending() {
		t.Fatal("schedule from inside the callback should be kept")
	}
	frames.Flush()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSchedulerCancel(t *testing.T) {
	frames := NewManualFrames()
	calls := 0
	s := New(frames, func() { calls++ })

	s.Schedule()
	s.Cancel()
	s.Cancel()

	if s.Pending() {
		t.Error("Cancel should clear the pending flag")
	}
	if frames.Pending() != 0 {
		t.Errorf("pending frames = %d, want 0", frames.Pending())
	}
	frames.Flush()
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}

	if !s.Schedule() {
		t.Error("Schedule after Cancel should request a new frame")
	}
}

func TestManualFramesCancelUnknown(t *testing.T) {
	frames := NewManualFrames()
	ran := false
	frames.RequestFrame(func() { ran = true })

	frames.CancelFrame(999)

	if n := frames.Flush(); n != 1 || !ran {
		t.Errorf("Flush() = %d, ran = %v; want 1, true", n, ran)
	}
}
