package workers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrLoopStopped = errors.New("worker loop stopped")

type job struct {
	fn     func(ctx context.Context) error
	ctx    context.Context
	result chan error
}

// Loop is the single logical thread the core runs on. Jobs execute one at a
// time in submission order, so the services they touch need no locking.
type Loop struct {
	jobs chan job
	done chan struct{}
	log  *zap.Logger
}

func NewLoop(queueSize int, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		jobs: make(chan job, queueSize),
		done: make(chan struct{}),
		log:  log,
	}
}

func (l *Loop) Start(ctx context.Context) {
	go func() {
		l.log.Info("worker loop started")
		defer close(l.done)
		for {
			select {
			case j := <-l.jobs:
				l.run(ctx, j)
			case <-ctx.Done():
				l.log.Info("worker loop shutting down")
				return
			}
		}
	}()
}

// Do runs fn on the loop and waits for its result. fn receives ctx.
func (l *Loop) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{fn: fn, ctx: ctx, result: make(chan error, 1)}

	select {
	case l.jobs <- j:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn without waiting. It reports false when the queue is full or
// the loop is gone; the job is dropped in that case.
func (l *Loop) Post(fn func(ctx context.Context) error) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.jobs <- job{fn: fn}:
		return true
	default:
		l.log.Warn("worker loop queue full, dropping job")
		return false
	}
}

func (l *Loop) run(loopCtx context.Context, j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = loopCtx
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				l.log.Error("worker loop job panicked", zap.Any("panic", r))
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		return j.fn(ctx)
	}()

	if j.result != nil {
		j.result <- err
		return
	}
	if err != nil {
		l.log.Warn("worker loop job failed", zap.Error(err))
	}
}
