// Package worker holds the processing step shared by the primary and
// retry image queues, and the wiring that builds both workers.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"crm-api/internal/event"
	"crm-api/internal/queue"
	"crm-api/internal/service"
)

// Queue names and retry policies of the image pipeline. The primary
// queue gets two attempts with a 3s exponential backoff; jobs it
// exhausts are re-enqueued exactly once into the retry queue, which
// gets three attempts at a 5s base and no further fallback.
const (
	PrimaryQueue = "user-image"
	RetryQueue   = "user-image-retry"

	primaryMaxAttempts = 2
	retryMaxAttempts   = 3
)

var (
	primaryBackoff = queue.Backoff{Base: 3 * time.Second}
	retryBackoff   = queue.Backoff{Base: 5 * time.Second}
)

// ProfileStore is the slice of the user repository the pipeline writes
// back through.
type ProfileStore interface {
	UpdateProfileImage(ctx context.Context, id uint64, url string) error
}

// ImageProcessor performs one attempt at turning uploaded image bytes
// into a hosted URL on the user's profile.
type ImageProcessor struct {
	Host   service.ImageHost
	Users  ProfileStore
	Events event.Sink
	Log    *zap.Logger
}

// Process uploads the job's image and writes the resulting URL onto the
// user row. An empty URL from the host is a soft success: the write is
// skipped with a warning and no retry is triggered. Any error returned
// here makes the owning queue retry per its policy.
func (p *ImageProcessor) Process(ctx context.Context, job queue.Job) error {
	url, err := p.Host.Upload(ctx, job.Image)
	if err != nil {
		return err
	}
	if url == "" {
		p.Log.Warn("image host returned empty URL, skipping profile update",
			zap.Uint64("user_id", job.UserID))
		return nil
	}
	if err := p.Users.UpdateProfileImage(ctx, job.UserID, url); err != nil {
		return err
	}
	p.Events.Publish(ctx, event.Event{
		Type:   event.TypeImageProcessed,
		UserID: job.UserID,
		Detail: url,
		At:     time.Now().UTC(),
	})
	return nil
}

// NewImageWorkers builds the primary and retry workers around a shared
// processor. The primary worker's terminal-failure hook hands the job
// to the retry queue exactly once; the retry worker's hook drops the
// job, leaving only a log line and a durable audit event behind.
func NewImageWorkers(broker queue.Broker, p *ImageProcessor, log *zap.Logger) (primary, retry *queue.Worker) {
	retry = &queue.Worker{
		Name:        RetryQueue,
		Broker:      broker,
		MaxAttempts: retryMaxAttempts,
		Backoff:     retryBackoff,
		Handler:     p.Process,
		Log:         log,
		OnExhausted: func(ctx context.Context, job queue.Job) {
			log.Error("image job dropped after retry queue exhaustion",
				zap.Uint64("user_id", job.UserID), zap.Int("attempts", job.Attempt))
			p.Events.Publish(ctx, event.Event{
				Type:   event.TypeImageDropped,
				UserID: job.UserID,
				At:     time.Now().UTC(),
			})
		},
	}
	primary = &queue.Worker{
		Name:        PrimaryQueue,
		Broker:      broker,
		MaxAttempts: primaryMaxAttempts,
		Backoff:     primaryBackoff,
		Handler:     p.Process,
		Log:         log,
		OnExhausted: func(ctx context.Context, job queue.Job) {
			if err := retry.Enqueue(ctx, job); err != nil {
				log.Error("handoff to retry queue failed, job lost",
					zap.Uint64("user_id", job.UserID), zap.Error(err))
			}
		},
	}
	return primary, retry
}
