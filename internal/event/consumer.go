package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

// StartAuditConsumer connects to the broker, declares the audit queue
// (durable) and appends one line per event to a rolling logs/audit.log.
// It runs a reconnect loop with capped exponential backoff and keeps
// running across broker restarts; processing errors reject the
// offending message without requeueing to avoid tight loops. The loop
// returns once ctx is cancelled.
func StartAuditConsumer(ctx context.Context, url string, log *zap.Logger) {
	sink := &lumberjack.Logger{
		Filename:   "logs/audit.log",
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     90, // days
		Compress:   true,
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			log.Info("audit consumer: stopping")
			return
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				log.Info("audit consumer: stopping")
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(ctx, conn, sink, log); err != nil {
			log.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
			if !sleepCtx(ctx, 2*time.Second) {
				log.Info("audit consumer: stopping")
				return
			}
		}
	}
}

// sleepCtx waits for d, reporting false when ctx wins.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sink *lumberjack.Logger, log *zap.Logger) error {
	defer func() { _ = conn.Close() }()

	// Closing the connection on cancel unblocks the deliveries range
	// below, so the consumer stops promptly mid-stream.
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stopped:
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("audit consumer: set QoS failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(AuditQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := appendAuditLine(sink, d.Body); err != nil {
			log.Warn("audit consumer: handle message failed", zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func appendAuditLine(sink *lumberjack.Logger, body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] %s | user_id=%d | detail=%q\n",
		ev.At.UTC().Format(time.RFC3339), ev.Type, ev.UserID, ev.Detail)
	if _, err := sink.Write([]byte(line)); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
