package schedule

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddJobRunsOnSchedule(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	if _, err := s.AddJob("* * * * * *", Job{Name: "tick", Run: func() error {
		runs.Add(1)
		return nil
	}}); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("expected the job to run at least once within the deadline")
	}
}

func TestAddJobRejectsInvalidExpression(t *testing.T) {
	s := New(nil)
	if _, err := s.AddJob("not a cron expr", Job{Name: "bad", Run: func() error { return nil }}); err == nil {
		t.Fatal("expected an error for an invalid cron expression")
	}
}

func TestFailingJobDoesNotStopScheduler(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	if _, err := s.AddJob("* * * * * *", Job{Name: "flaky", Run: func() error {
		runs.Add(1)
		return errors.New("boom")
	}}); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() < 2 {
		t.Fatal("expected the scheduler to keep invoking the job after it errors")
	}
}
