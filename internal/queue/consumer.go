package queue

// The consumer listens to every back-office queue and appends one line
// per event to an audit log file.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer appends received events to LogPath.
type Consumer struct {
	URL     string
	LogPath string
	Log     *zap.Logger
}

// Run connects to RabbitMQ, declares the event queues and consumes until
// ctx is cancelled.  Broken connections are re-dialed with exponential
// backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("event consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("event consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type delivery struct {
	queue string
	amqp.Delivery
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("event consumer: set QoS failed", zap.Error(err))
	}

	queues := []string{BannerReorderedQueue, CheckInIssuedQueue}
	merged := make(chan delivery)
	cancelled := make(chan string, len(queues))
	done := make(chan struct{})
	defer close(done)
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func(q string, msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- delivery{queue: q, Delivery: d}:
				case <-done:
					return
				}
			}
			// msgs also closes when the broker cancels the consumer and
			// leaves the channel open.
			cancelled <- q
		}(q, msgs)
	}

	return c.dispatch(ctx, merged, ch.NotifyClose(make(chan *amqp.Error, 1)), cancelled)
}

// dispatch handles deliveries until ctx ends, the channel closes or one
// consumer is cancelled.  Any of the last two returns an error so that Run
// reconnects.
func (c *Consumer) dispatch(ctx context.Context, merged <-chan delivery, closed <-chan *amqp.Error, cancelled <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return amqpErr
			}
			return errors.New("channel closed")
		case q := <-cancelled:
			return fmt.Errorf("consumer on %s cancelled", q)
		case d := <-merged:
			if err := c.handle(d.queue, d.Body); err != nil {
				c.Log.Error("event consumer: handle message failed", zap.String("queue", d.queue), zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(queue string, body []byte) error {
	line, err := FormatLine(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders one event as a single human-readable log line.
func FormatLine(queue string, body []byte) (string, error) {
	switch queue {
	case BannerReorderedQueue:
		var ev BannerReorderedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		ranks := make([]string, len(ev.Updated))
		for i, r := range ev.Updated {
			ranks[i] = fmt.Sprintf("%s=%d", r.ID, r.Order)
		}
		return fmt.Sprintf("[%s] Banners reordered | actor=%s | filter=%s | dragged=%s | target=%s | updated=[%s] | failed=%d\n",
			ev.At, ev.ActorID, ev.Filter, ev.DraggedID, ev.TargetID, strings.Join(ranks, ","), ev.Failed), nil
	case CheckInIssuedQueue:
		var ev CheckInIssuedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Check-in issued | order=%s | by=%s | bookings=[%s] | venues=[%s] | fallback=%t\n",
			ev.IssuedAt, ev.OrderID, ev.IssuedBy, strings.Join(ev.BookingIDs, ","), strings.Join(ev.VenueIDs, ","), ev.Fallback), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
