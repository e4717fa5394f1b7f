package event

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends audit events to the broker. It dials per publish and
// never panics; any error is logged and swallowed so the main request
// flow is never interrupted by the audit path.
type Publisher struct {
	URL string
	Log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{URL: url, Log: log}
}

// Publish marshals the event and pushes it onto the durable audit
// queue. Messages are marked persistent so they survive broker
// restarts.
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("audit publish: dial failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("audit publish: channel open failed", zap.Error(err))
		return
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so publisher and consumer can start in any order.
	if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
		p.Log.Warn("audit publish: queue declare failed", zap.Error(err))
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.Log.Warn("audit publish: marshal failed", zap.Error(err))
		return
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", AuditQueue, false, false, pub); err != nil {
		p.Log.Warn("audit publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}
