package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alphafinder/rategate/internal/ratelimit"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// DefaultAlertQueueName is the durable queue alert consumers read from.
	DefaultAlertQueueName = "rategate_alerts"
	// DefaultAlertExchangeName is the exchange alerts are published to.
	DefaultAlertExchangeName = "rategate_events"

	alertRoutingKey = "limiter.health"
)

// alertMessage is the wire form of a health transition.
type alertMessage struct {
	ID      string    `json:"id"`
	Service string    `json:"service"`
	Status  string    `json:"status"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

// AMQPNotifier publishes limiter health transitions to a durable RabbitMQ
// queue for the alerting pipeline. Publish failures are logged and dropped:
// the alert channel must never become a second point of failure.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger
}

var _ ratelimit.Notifier = (*AMQPNotifier)(nil)

// NewAMQPNotifier connects to RabbitMQ and declares the alert exchange,
// queue, and binding.
func NewAMQPNotifier(amqpURL string, log *zap.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	n := &AMQPNotifier{conn: conn, channel: ch, log: log}
	if err := n.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup alert queue: %w", err)
	}
	return n, nil
}

func (n *AMQPNotifier) setup() error {
	err := n.channel.ExchangeDeclare(
		DefaultAlertExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = n.channel.QueueDeclare(
		DefaultAlertQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = n.channel.QueueBind(
		DefaultAlertQueueName,
		alertRoutingKey,
		DefaultAlertExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// Notify implements ratelimit.Notifier.
func (n *AMQPNotifier) Notify(ctx context.Context, event ratelimit.Event) {
	msg := alertMessage{
		ID:      uuid.NewString(),
		Service: "rategate",
		Status:  event.Status,
		Reason:  event.Reason,
		At:      event.At,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		n.log.Error("failed_to_marshal_alert", zap.Error(err))
		return
	}

	err = n.channel.PublishWithContext(ctx,
		DefaultAlertExchangeName,
		alertRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.At,
			Body:         body,
		},
	)
	if err != nil {
		n.log.Error("failed_to_publish_alert",
			zap.Error(err),
			zap.String("status", event.Status),
		)
		return
	}
	n.log.Info("published_limiter_alert",
		zap.String("status", event.Status),
		zap.String("alert_id", msg.ID),
	)
}

// Close closes the RabbitMQ connection.
func (n *AMQPNotifier) Close() error {
	return n.conn.Close()
}
