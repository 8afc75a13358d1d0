package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"auction-engine/utils"

	amqp "github.com/rabbitmq/amqp091-go"
)

//go:generate mockgen -source=notify.go -destination=mock_notify.go -package=notify

// WinnerEmailQueue is the durable queue winner emails are published to
const WinnerEmailQueue = "auction.winner_email"

// Email is one outbound message
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers emails. Delivery is best effort for callers.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// LogSender writes emails to the structured log instead of delivering them
type LogSender struct{}

// Send logs the email
func (LogSender) Send(_ context.Context, email Email) error {
	if email.To == "" {
		return fmt.Errorf("send email %q: empty recipient", email.Subject)
	}
	utils.Info("Email queued", map[string]any{
		"to":      email.To,
		"subject": email.Subject,
		"bytes":   len(email.Body),
	})
	return nil
}

// AMQPSender publishes emails as persistent JSON messages for a mail worker
type AMQPSender struct {
	url   string
	queue string
}

// NewAMQPSender creates a sender publishing to queue on the broker at url
func NewAMQPSender(url, queue string) *AMQPSender {
	if queue == "" {
		queue = WinnerEmailQueue
	}
	return &AMQPSender{url: url, queue: queue}
}

// Send dials the broker, declares the queue and publishes the email
func (s *AMQPSender) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return fmt.Errorf("send email %q: empty recipient", email.Subject)
	}

	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		s.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare %s: %w", s.queue, err)
	}

	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", s.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish to %s: %w", s.queue, err)
	}
	return nil
}
