package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Publisher delivers alert messages.
type Publisher interface {
	PublishViolation(ctx context.Context, msg *ObjectiveViolation) error
	Close() error
}

// AMQPPublisher publishes to a durable topic exchange.
type AMQPPublisher struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
}

// Dial connects to the broker and declares the exchange.
func Dial(url, exchange, routingKey string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// DialWithRetry calls Dial until it succeeds, attempts run out, or ctx is
// done, backing off exponentially between tries.
func DialWithRetry(ctx context.Context, url, exchange, routingKey string, attempts int) (*AMQPPublisher, error) {
	var lastErr error
	for attempt := 0; attempt < max(attempts, 1); attempt++ {
		p, err := Dial(url, exchange, routingKey)
		if err == nil {
			return p, nil
		}
		lastErr = err
		wait := exponentialBackoff(attempt)
		log.Warn().Err(err).Int("attempt", attempt+1).Dur("retry_in", wait).Msg("broker unavailable")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

// exponentialBackoff returns 1s, 2s, 4s... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return 30 * time.Second
	}
	return min(time.Duration(1<<attempt)*time.Second, 30*time.Second)
}

// PublishViolation publishes msg as a persistent JSON message.
func (p *AMQPPublisher) PublishViolation(ctx context.Context, msg *ObjectiveViolation) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.MessageID,
			Type:         msg.Type,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log.Info().
		Str("message_id", msg.MessageID).
		Str("category", msg.Category).
		Str("period", msg.Period).
		Str("exchange", p.exchange).
		Msg("published objective violation")

	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
