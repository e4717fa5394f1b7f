// Package event defines the audit event stream. Security-relevant and
// lossy moments (refresh-token reuse, image jobs dropped after retry
// exhaustion) are published to a durable broker queue and consumed into
// a rolling audit log, so they leave a trace beyond process stdout.
package event

import (
	"context"
	"time"
)

// AuditQueue is the durable broker queue carrying audit events.
const AuditQueue = "crm.audit"

// Event types.
const (
	TypeReuseDetected  = "auth.reuse_detected"
	TypeImageProcessed = "image.processed"
	TypeImageDropped   = "image.dropped"
)

// Event is the JSON payload published to the audit queue.
type Event struct {
	Type   string    `json:"type"`
	UserID uint64    `json:"userId,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Sink accepts events. Publishing is always fire-and-forget from the
// caller's point of view: implementations log their own failures and
// never fail the originating request or job.
type Sink interface {
	Publish(ctx context.Context, ev Event)
}

// Nop is the Sink used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
