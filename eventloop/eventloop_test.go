package eventloop

import (
	"context"
	"testing"
	"time"
)

func TestVirtual_OrderAndCancel(t *testing.T) {
	v := NewVirtual(time.Unix(0, 0))
	var got []string

	v.AfterFunc(200*time.Millisecond, func() { got = append(got, "200") })
	v.AfterFunc(50*time.Millisecond, func() { got = append(got, "50") })
	cancel := v.AfterFunc(100*time.Millisecond, func() { got = append(got, "100") })
	v.RequestFrame(func() { got = append(got, "frame") })
	cancel()

	v.Advance(time.Second)

	want := []string{"frame", "50", "200"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if v.Pending() != 0 {
		t.Fatalf("pending: %d", v.Pending())
	}
}

func TestVirtual_NestedScheduling(t *testing.T) {
	v := NewVirtual(time.Unix(0, 0))
	frames := 0
	var tick func()
	tick = func() {
		frames++
		v.RequestFrame(tick)
	}
	v.RequestFrame(tick)

	v.Advance(time.Second)
	if frames != 60 {
		t.Fatalf("frames in one second: got %d, want 60", frames)
	}
	if v.Pending() != 1 {
		t.Fatalf("pending: got %d, want 1", v.Pending())
	}
	if !v.Now().Equal(time.Unix(1, 0)) {
		t.Fatalf("Now: %v", v.Now())
	}
}

func TestLoop_RunsOnLoopGoroutine(t *testing.T) {
	l := New(Config{FrameInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	done := make(chan string, 3)
	l.Post(func() { done <- "post" })
	l.RequestFrame(func() { done <- "frame" })
	l.AfterFunc(5*time.Millisecond, func() { done <- "timer" })
	stop := l.AfterFunc(time.Millisecond, func() { done <- "cancelled" })
	stop()

	seen := map[string]bool{}
	timeout := time.After(2 * time.Second)
	for len(seen) < 3 {
		select {
		case s := <-done:
			seen[s] = true
		case <-timeout:
			t.Fatalf("timed out, seen %v", seen)
		}
	}
	if seen["cancelled"] {
		t.Fatal("cancelled timer ran")
	}

	cancel()
	if err := <-errc; err != context.Canceled {
		t.Fatalf("Run: got %v, want context.Canceled", err)
	}
	// Posting after shutdown must not block.
	l.Post(func() {})
}
