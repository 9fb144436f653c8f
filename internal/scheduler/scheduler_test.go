package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestAdd(t *testing.T) {
	s := New()

	tests := []struct {
		name    string
		job     string
		spec    string
		wantErr bool
	}{
		{"every minute", "reminders", "@every 1m", false},
		{"cron expression", "integrations", "0 */2 * * *", false},
		{"duplicate", "reminders", "@every 1m", true},
		{"invalid spec", "broken", "every minute", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Add(tt.job, tt.spec, func(context.Context) {})
			if (err != nil) != tt.wantErr {
				t.Errorf("Add(%s, %s) error = %v, wantErr %v", tt.job, tt.spec, err, tt.wantErr)
			}
		})
	}

	if got := strings.Join(s.Jobs(), ","); got != "integrations,reminders" {
		t.Errorf("Jobs() = %s, want integrations,reminders", got)
	}

	s.Remove("integrations")
	s.Remove("unknown")
	if got := strings.Join(s.Jobs(), ","); got != "reminders" {
		t.Errorf("Jobs() after Remove = %s, want reminders", got)
	}
}

func TestStopLetsRunningJobFinish(t *testing.T) {
	s := New()
	var runs atomic.Int32
	var finished, cancelled atomic.Bool
	release := make(chan struct{})

	if err := s.Add("sync", "@every 1s", func(ctx context.Context) {
		runs.Add(1)
		<-release
		cancelled.Store(ctx.Err() != nil)
		finished.Store(true)
	}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	s.Start()

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("job never ran")
	}

	stopped := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		stopped <- s.Stop(ctx)
	}()

	select {
	case err := <-stopped:
		t.Fatalf("Stop() returned (%v) while a job was still running", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	if err := <-stopped; err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if !finished.Load() {
		t.Error("running job did not finish before Stop returned")
	}
	if cancelled.Load() {
		t.Error("running job saw its context cancelled by Stop")
	}

	// A blocked job keeps later ticks from overlapping, and none run after Stop.
	time.Sleep(1200 * time.Millisecond)
	if n := runs.Load(); n != 1 {
		t.Errorf("job ran %d times, want 1", n)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("second Stop() failed: %v", err)
	}
}

func TestStopTimesOut(t *testing.T) {
	s := New()
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)

	if err := s.Add("slow", "@every 1s", func(context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop() = %v, want context.DeadlineExceeded", err)
	}
}
