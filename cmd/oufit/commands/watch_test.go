package commands

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oufit/oufit/pkg/telemetry"
)

func testLogger(t *testing.T) *telemetry.Logger {
	t.Helper()
	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  "error",
		Format: "json",
		Output: "stderr",
	})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	return logger
}

// TestWatchLoopSerializesRefits checks that writes arriving while a refit
// is in progress never start a second concurrent refit; they coalesce
// into one follow-up run after the current one finishes.
func TestWatchLoopSerializesRefits(t *testing.T) {
	events := make(chan fsnotify.Event, 8)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inFlight atomic.Int32
	started := make(chan struct{}, 8)
	release := make(chan struct{})
	refit := func() error {
		if n := inFlight.Add(1); n != 1 {
			t.Errorf("refit started with %d already in flight", n-1)
		}
		started <- struct{}{}
		<-release
		inFlight.Add(-1)
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, events, errs, time.Millisecond, testLogger(t), func(string) {}, refit)
	}()

	events <- fsnotify.Event{Name: "series.csv", Op: fsnotify.Write}
	<-started

	// More writes while the first refit is blocked.
	events <- fsnotify.Event{Name: "series.csv", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "series.csv", Op: fsnotify.Write}
	time.Sleep(20 * time.Millisecond)
	if got := inFlight.Load(); got != 1 {
		t.Fatalf("%d refits in flight during a refit, want 1", got)
	}

	release <- struct{}{}
	// The queued writes coalesce into exactly one follow-up refit.
	<-started
	release <- struct{}{}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watchLoop returned %v", err)
	}
}

// TestWatchLoopIgnoresOtherOps checks chmod-style events do not refit.
func TestWatchLoopIgnoresOtherOps(t *testing.T) {
	events := make(chan fsnotify.Event, 1)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var refits atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, events, errs, time.Millisecond, testLogger(t), func(string) {},
			func() error {
				refits.Add(1)
				return nil
			})
	}()

	events <- fsnotify.Event{Name: "series.csv", Op: fsnotify.Chmod}
	time.Sleep(20 * time.Millisecond)
	if got := refits.Load(); got != 0 {
		t.Errorf("%d refits after a chmod event, want 0", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watchLoop returned %v", err)
	}
}
