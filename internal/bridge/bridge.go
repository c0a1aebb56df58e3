package bridge

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// OperationHandler processes one submission's payload and returns a
// result to be emitted as a "result" event, or an error to be turned
// into an ErrorEvent against the same submission.
type OperationHandler func(ctx context.Context, sub Submission) (any, error)

// ResultEvent is emitted against a submission once its handler returns
// successfully.
type ResultEvent struct {
	Op     string
	Result any
}

func (ResultEvent) EventType() string { return "result" }

// Bridge owns a single operation handler and a run loop that pulls
// submissions off a SubmissionQueue and feeds results and errors into
// an EventQueue. A handler panic or error never stops the loop: it is
// converted to an ErrorEvent against the submission that triggered it
// (§4.4).
type Bridge struct {
	submissions *SubmissionQueue
	events      *EventQueue
	handle      OperationHandler

	stop chan struct{}
	done chan struct{}
}

// New constructs a bridge around the given queues and handler.
func New(submissions *SubmissionQueue, events *EventQueue, handle OperationHandler) *Bridge {
	return &Bridge{
		submissions: submissions,
		events:      events,
		handle:      handle,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Submit enqueues an operation for processing and returns its id.
func (b *Bridge) Submit(op string, payload any) string {
	return b.submissions.Submit(op, payload)
}

// Events returns the bridge's event queue for listener registration.
func (b *Bridge) Events() *EventQueue { return b.events }

// Run pulls submissions until Stop is called or the submission queue is
// closed and drained. It is meant to be run in its own goroutine; it
// returns once the loop has fully exited.
func (b *Bridge) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-b.stop:
			return
		default:
		}

		sub, ok := b.submissions.Take(ctx)
		if !ok {
			return
		}
		b.process(ctx, sub)
	}
}

// RunWorkers runs n concurrent workers pulling from the submission
// queue until it is closed and drained or ctx is cancelled, then
// returns. Unlike Run, it does not honor Stop; callers that want to
// cancel early should cancel ctx or close the submission queue. Each
// worker's process panics and handler errors are still converted to
// ErrorEvents rather than failing the group, so Wait only ever
// returns a non-nil error from ctx cancellation.
func (b *Bridge) RunWorkers(ctx context.Context, n int) error {
	defer close(b.done)
	if n < 1 {
		n = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			for {
				sub, ok := b.submissions.Take(gctx)
				if !ok {
					return nil
				}
				b.process(gctx, sub)
			}
		})
	}
	return g.Wait()
}

func (b *Bridge) process(ctx context.Context, sub Submission) {
	defer func() {
		if r := recover(); r != nil {
			b.events.Emit(sub.ID, newOperationHandlerError(fmt.Sprintf("%v", r), string(debug.Stack())))
		}
	}()

	result, err := b.handle(ctx, sub)
	if err != nil {
		b.events.Emit(sub.ID, newOperationHandlerError(err.Error(), ""))
		return
	}
	b.events.Emit(sub.ID, ResultEvent{Op: sub.Op, Result: result})
}

// Stop requests the run loop exit after the in-flight operation (if
// any) finishes. Stop is idempotent; it does not close the submission
// queue, so callers that also want to terminate Take immediately
// should call the queue's Close as well.
func (b *Bridge) Stop() {
	select {
	case <-b.stop:
	default:
		close(b.stop)
	}
}

// Wait blocks until Run has returned.
func (b *Bridge) Wait() {
	<-b.done
}
