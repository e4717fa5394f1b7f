// Package queue implements the bounded-retry task queues behind the
// image pipeline. A queue is a named FIFO on a Broker; each queue is
// drained by exactly one worker goroutine, so jobs within a queue run
// strictly one at a time in enqueue order while different queues run
// independently of each other.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Job is the unit of work carried through the image queues.
// Attempt counts processing attempts already charged to this job.
type Job struct {
	UserID  uint64 `json:"userId"`
	Image   []byte `json:"image"`
	Attempt int    `json:"attempt"`
}

// Backoff is an exponential retry delay: Base doubles with every
// completed attempt (attempt 1 waits Base, attempt 2 waits 2*Base, ...).
type Backoff struct {
	Base time.Duration
}

// Delay returns how long to wait before the retry that follows the
// given completed attempt count.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return b.Base << (attempt - 1)
}

// Broker moves serialized jobs in and out of named queues. The redis
// implementation is the production broker; tests substitute an
// in-memory one.
type Broker interface {
	// Push appends a job to the ready list of a queue.
	Push(ctx context.Context, queue string, payload []byte) error
	// PushDelayed schedules a job to become ready at a future instant.
	PushDelayed(ctx context.Context, queue string, payload []byte, readyAt time.Time) error
	// Pop blocks up to timeout for the next ready job. A nil payload
	// with nil error means the wait timed out with nothing to do.
	Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
}

// Worker drains one queue with concurrency 1. Handler failures are
// retried with exponential backoff until MaxAttempts is spent, then the
// job is handed to OnExhausted exactly once and removed from the queue.
type Worker struct {
	Name        string
	Broker      Broker
	MaxAttempts int
	Backoff     Backoff
	Handler     func(ctx context.Context, job Job) error
	OnExhausted func(ctx context.Context, job Job) // optional terminal-failure hook
	Log         *zap.Logger
}

// Enqueue submits a fresh job (attempt counter reset) to this worker's
// queue.
func (w *Worker) Enqueue(ctx context.Context, job Job) error {
	job.Attempt = 0
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return w.Broker.Push(ctx, w.Name, payload)
}

// Run consumes jobs until the context is cancelled. It never returns an
// error: broker hiccups and malformed payloads are logged and the loop
// keeps going, because a wedged consumer would silently stop the whole
// pipeline.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload, err := w.Broker.Pop(ctx, w.Name, time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.Log.Warn("queue pop failed", zap.String("queue", w.Name), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if payload == nil {
			continue // idle
		}

		var job Job
		if err := json.Unmarshal(payload, &job); err != nil {
			w.Log.Error("dropping undecodable job", zap.String("queue", w.Name), zap.Error(err))
			continue
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	job.Attempt++
	err := w.Handler(ctx, job)
	if err == nil {
		return // terminal success: the job was already removed by Pop
	}

	if job.Attempt >= w.MaxAttempts {
		w.Log.Warn("job exhausted its attempts",
			zap.String("queue", w.Name), zap.Uint64("user_id", job.UserID),
			zap.Int("attempts", job.Attempt), zap.Error(err))
		if w.OnExhausted != nil {
			w.OnExhausted(ctx, job)
		}
		return
	}

	delay := w.Backoff.Delay(job.Attempt)
	w.Log.Info("job failed, scheduling retry",
		zap.String("queue", w.Name), zap.Uint64("user_id", job.UserID),
		zap.Int("attempt", job.Attempt), zap.Duration("delay", delay), zap.Error(err))

	payload, merr := json.Marshal(job)
	if merr != nil {
		w.Log.Error("marshal retry job", zap.Error(merr))
		return
	}
	if perr := w.Broker.PushDelayed(ctx, w.Name, payload, time.Now().Add(delay)); perr != nil {
		w.Log.Error("schedule retry failed, job lost",
			zap.String("queue", w.Name), zap.Uint64("user_id", job.UserID), zap.Error(perr))
	}
}
