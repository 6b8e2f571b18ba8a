// Package service publishes back-office domain events to RabbitMQ.
// Publishing is best effort: errors are logged and returned so callers can
// ignore them without failing the request that produced the event.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/iliyamo/cinema-backoffice/internal/queue"
)

// Publisher is what handlers use to emit events.
type Publisher interface {
	PublishBannerReordered(ctx context.Context, ev q.BannerReorderedEvent) error
	PublishCheckInIssued(ctx context.Context, ev q.CheckInIssuedEvent) error
}

// RabbitPublisher dials the broker per publish.  Event volume is a few
// messages per staff action, so no channel pool is kept.
type RabbitPublisher struct {
	URL string
	Log *zap.Logger
}

// NewRabbitPublisher returns a publisher for url.
func NewRabbitPublisher(url string, log *zap.Logger) *RabbitPublisher {
	return &RabbitPublisher{URL: url, Log: log}
}

func (p *RabbitPublisher) PublishBannerReordered(ctx context.Context, ev q.BannerReorderedEvent) error {
	return p.publish(ctx, q.BannerReorderedQueue, ev)
}

func (p *RabbitPublisher) PublishCheckInIssued(ctx context.Context, ev q.CheckInIssuedEvent) error {
	return p.publish(ctx, q.CheckInIssuedQueue, ev)
}

func (p *RabbitPublisher) publish(ctx context.Context, queue string, event any) error {
	log := p.Log.With(zap.String("queue", queue))

	body, err := json.Marshal(event)
	if err != nil {
		log.Error("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}

// LogPublisher stands in when no broker is configured; events are only
// written to the logger.
type LogPublisher struct {
	Log *zap.Logger
}

func (p LogPublisher) PublishBannerReordered(_ context.Context, ev q.BannerReorderedEvent) error {
	p.Log.Info("event", zap.String("queue", q.BannerReorderedQueue), zap.String("dragged", ev.DraggedID), zap.Int("updated", len(ev.Updated)))
	return nil
}

func (p LogPublisher) PublishCheckInIssued(_ context.Context, ev q.CheckInIssuedEvent) error {
	p.Log.Info("event", zap.String("queue", q.CheckInIssuedQueue), zap.String("order", ev.OrderID), zap.Strings("bookings", ev.BookingIDs))
	return nil
}
