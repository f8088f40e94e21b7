package capture

import (
	"context"
	"sync"

	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/logging"
)

type queueKey struct{}

// Queue is a serial FIFO executor backed by a single goroutine. It is the
// "session context" every capture operation runs on and doubles as the
// default main executor of a Scanner.
//
// Submission never blocks. Tasks submitted before Close always run; later
// submissions are rejected.
type Queue struct {
	label  string
	logger logging.Logger

	mu      sync.Mutex
	pending []func(context.Context)
	closed  bool

	wake chan struct{}
	done chan struct{}
	ctx  context.Context
}

var _ core.Executor = (*Queue)(nil)

// NewQueue starts a queue goroutine. The label shows up in logs.
func NewQueue(label string, logger logging.Logger) *Queue {
	q := &Queue{
		label:  label,
		logger: logging.OrNoOp(logger),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	q.ctx = context.WithValue(context.Background(), queueKey{}, q)
	go q.loop()
	return q
}

// Label returns the queue label.
func (q *Queue) Label() string { return q.label }

// Submit enqueues fn. It reports false when the queue is closed.
func (q *Queue) Submit(fn func(ctx context.Context)) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Async implements core.Executor. Work submitted after Close is dropped.
func (q *Queue) Async(fn func()) {
	if !q.Submit(func(context.Context) { fn() }) {
		q.logger.Debug("Dropped task on closed queue", "queue", q.label)
	}
}

// Sync runs fn on the queue and waits for it to finish. When ctx shows the
// caller is already running on q, fn runs inline to avoid self-deadlock.
// Waiting is not cancellable: the caller relies on completion.
func (q *Queue) Sync(ctx context.Context, fn func(ctx context.Context)) error {
	if q.IsCurrent(ctx) {
		fn(ctx)
		return nil
	}
	finished := make(chan struct{})
	if !q.Submit(func(qctx context.Context) {
		defer close(finished)
		fn(qctx)
	}) {
		return core.ErrQueueClosed
	}
	<-finished
	return nil
}

// IsCurrent reports whether ctx was handed out by q to a running task.
func (q *Queue) IsCurrent(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	cur, _ := ctx.Value(queueKey{}).(*Queue)
	return cur == q
}

// Close stops accepting work. Already queued tasks still run; Done is closed
// once the last one returns. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the queue has drained after Close.
func (q *Queue) Done() <-chan struct{} { return q.done }

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, fn := range batch {
			q.run(fn)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-q.wake
	}
}

func (q *Queue) run(fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Recovered panic in queue task", "queue", q.label, "panic", r)
		}
	}()
	fn(q.ctx)
}
