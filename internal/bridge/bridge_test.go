package bridge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmissionQueueFIFOAndIDs(t *testing.T) {
	q := NewSubmissionQueue(2)
	id1 := q.Submit("run", "a")
	id2 := q.Submit("run", "b")
	if id1 == id2 || id1 == "" || id2 == "" {
		t.Fatalf("expected distinct non-empty ids, got %q %q", id1, id2)
	}

	sub, ok := q.Take(context.Background())
	if !ok || sub.Payload != "a" {
		t.Fatalf("expected first submission back, got %+v ok=%v", sub, ok)
	}
}

func TestSubmissionQueueCloseDrains(t *testing.T) {
	q := NewSubmissionQueue(4)
	q.Submit("run", "a")
	q.Close()

	sub, ok := q.Take(context.Background())
	if !ok || sub.Payload != "a" {
		t.Fatalf("expected queued item before drain, got %+v ok=%v", sub, ok)
	}
	if _, ok := q.Take(context.Background()); ok {
		t.Fatal("expected closed, drained queue to report ok=false")
	}
}

func TestEventQueueEmitAndOnce(t *testing.T) {
	q := NewEventQueue(10)
	env, ok := func() (EventEnvelope, bool) {
		done := make(chan EventEnvelope, 1)
		go func() {
			e, ok := q.Once("result", time.Second)
			if ok {
				done <- e
			}
		}()
		time.Sleep(10 * time.Millisecond)
		q.Emit("sub-1", ResultEvent{Op: "run", Result: 42})
		select {
		case e := <-done:
			return e, true
		case <-time.After(time.Second):
			return EventEnvelope{}, false
		}
	}()
	if !ok {
		t.Fatal("expected Once to observe the emitted event")
	}
	if env.SubmissionID != "sub-1" {
		t.Errorf("expected submission id sub-1, got %q", env.SubmissionID)
	}
}

func TestEventQueueRecentRing(t *testing.T) {
	q := NewEventQueue(2)
	q.Emit("sub-1", ResultEvent{Op: "a"})
	q.Emit("sub-2", ResultEvent{Op: "b"})
	q.Emit("sub-3", ResultEvent{Op: "c"})

	recent := q.Recent()
	if len(recent) != 2 {
		t.Fatalf("expected ring capped at 2, got %d", len(recent))
	}
	if recent[0].SubmissionID != "sub-2" || recent[1].SubmissionID != "sub-3" {
		t.Errorf("expected oldest-evicted FIFO ring, got %+v", recent)
	}
}

func TestBridgeProcessEmitsResult(t *testing.T) {
	submissions := NewSubmissionQueue(4)
	events := NewEventQueue(10)
	b := New(submissions, events, func(ctx context.Context, sub Submission) (any, error) {
		return sub.Payload, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	defer func() {
		b.Stop()
		cancel()
		b.Wait()
	}()

	id := b.Submit("echo", "hello")
	env, ok := events.Once("result", time.Second)
	if !ok {
		t.Fatal("expected a result event")
	}
	if env.SubmissionID != id {
		t.Errorf("expected result tied to submission %q, got %q", id, env.SubmissionID)
	}
	res, ok := env.Event.(ResultEvent)
	if !ok || res.Result != "hello" {
		t.Errorf("unexpected result event: %+v", env.Event)
	}
}

func TestBridgeRunWorkersProcessesAllSubmissionsConcurrently(t *testing.T) {
	submissions := NewSubmissionQueue(16)
	events := NewEventQueue(16)
	var processed atomic.Int32
	b := New(submissions, events, func(ctx context.Context, sub Submission) (any, error) {
		processed.Add(1)
		return sub.Payload, nil
	})

	for i := 0; i < 8; i++ {
		b.Submit("op", i)
	}
	submissions.Close()

	done := make(chan error, 1)
	go func() { done <- b.RunWorkers(context.Background(), 4) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunWorkers returned an error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for RunWorkers to drain the queue")
	}
	b.Wait()

	if got := processed.Load(); got != 8 {
		t.Errorf("expected all 8 submissions processed, got %d", got)
	}
}

func TestBridgeHandlerErrorDoesNotStopLoop(t *testing.T) {
	submissions := NewSubmissionQueue(4)
	events := NewEventQueue(10)
	calls := 0
	b := New(submissions, events, func(ctx context.Context, sub Submission) (any, error) {
		calls++
		if sub.Payload == "fail" {
			return nil, errors.New("boom")
		}
		return "ok", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	defer func() {
		b.Stop()
		cancel()
		b.Wait()
	}()

	b.Submit("op", "fail")
	errEnv, ok := events.Once("error", time.Second)
	if !ok {
		t.Fatal("expected an error event")
	}
	if errEv, ok := errEnv.Event.(ErrorEvent); !ok || errEv.Code != "OPERATION_HANDLER_ERROR" {
		t.Errorf("unexpected error event: %+v", errEnv.Event)
	}

	b.Submit("op", "succeed")
	resEnv, ok := events.Once("result", time.Second)
	if !ok {
		t.Fatal("expected the loop to keep processing after a handler error")
	}
	if res, ok := resEnv.Event.(ResultEvent); !ok || res.Result != "ok" {
		t.Errorf("unexpected result after recovery: %+v", resEnv.Event)
	}
}
