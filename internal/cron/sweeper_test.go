package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSweeper_InvalidSpec(t *testing.T) {
	s := NewSweeper("not a schedule", func(context.Context) {})
	err := s.Start(context.Background())
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestSweeper_FiresOnSchedule(t *testing.T) {
	var count atomic.Int32
	s := NewSweeper("@every 50ms", func(context.Context) { count.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && count.Load() < 2 {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != context.Canceled {
		t.Errorf("unexpected start error: %v", err)
	}
	if n := count.Load(); n < 2 {
		t.Errorf("expected at least 2 sweeps, got %d", n)
	}
}
