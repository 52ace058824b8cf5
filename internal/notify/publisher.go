// Package notify publishes booking.confirmed messages to RabbitMQ after a
// booking commits. Publishing is best-effort: errors are returned so the
// caller can log them, but a booking never fails because of this package.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
)

// BookingConfirmedQueue is the durable queue booking messages are routed to.
const BookingConfirmedQueue = "booking.confirmed"

const defaultDialTimeout = 5 * time.Second

// BookingConfirmed is the message body. It carries enough detail for
// downstream consumers (mailers, analytics) to act without reading the database.
type BookingConfirmed struct {
	BookingID  int64           `json:"booking_id"`
	Reference  string          `json:"reference"`
	EventID    int64           `json:"event_id"`
	UserEmail  string          `json:"user_email"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	BookedAt   string          `json:"booked_at"`
}

// NewBookingConfirmed builds the message for a committed booking.
func NewBookingConfirmed(b model.Booking, pricing model.PricingBreakdown) BookingConfirmed {
	return BookingConfirmed{
		BookingID:  b.ID,
		Reference:  b.Reference,
		EventID:    b.EventID,
		UserEmail:  b.UserEmail,
		Quantity:   b.Quantity,
		UnitPrice:  pricing.FinalPrice,
		TotalPrice: b.TotalPrice,
		BookedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Publisher dials the broker for every message. Booking volume is low enough
// that a long-lived channel is not worth the reconnect handling.
type Publisher struct {
	url string
}

// NewPublisher constructs a Publisher for the given AMQP URL.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishBookingConfirmed sends one persistent message to the booking.confirmed queue.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, b model.Booking, pricing model.PricingBreakdown) error {
	body, err := json.Marshal(NewBookingConfirmed(b, pricing))
	if err != nil {
		return fmt.Errorf("marshal booking message: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout(ctx))})
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Channel RPCs have no deadline of their own; tearing the connection down
	// when ctx ends unblocks them.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.CloseDeadline(time.Now())
		case <-done:
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		BookingConfirmedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// dialTimeout bounds the TCP connect and AMQP handshake by ctx's deadline.
func dialTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout
	}
	if d := time.Until(deadline); d > 0 {
		return d
	}
	return time.Millisecond
}

// Nop discards messages; used when no broker is configured.
type Nop struct{}

func (Nop) PublishBookingConfirmed(context.Context, model.Booking, model.PricingBreakdown) error {
	return nil
}
