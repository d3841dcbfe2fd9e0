package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	amqp "github.com/streadway/amqp"
)

// RecipeEventsQueue receives every recipe lifecycle event.
const RecipeEventsQueue = "recipe_events"

// eventTypeHeader carries the event type next to the JSON payload.
const eventTypeHeader = "event_type"

// channel is the subset of *amqp.Channel the client uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel channel
	// mu serializes publishes on the shared channel.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the recipe events queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	client, err := newClient(conn, ch)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("queue", RecipeEventsQueue).Msg("RabbitMQ client connected")
	return client, nil
}

func newClient(conn *amqp.Connection, ch channel) (*Client, error) {
	if err := declareQueue(ch); err != nil {
		return nil, err
	}
	return &Client{conn: conn, channel: ch}, nil
}

func declareQueue(ch channel) error {
	_, err := ch.QueueDeclare(
		RecipeEventsQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", RecipeEventsQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ client: %v", errs)
	}
	return nil
}

// Publish sends payload as a persistent JSON message on the recipe events queue.
func (c *Client) Publish(eventType string, payload any) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",                // exchange: default exchange
		RecipeEventsQueue, // routing key: the queue name
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         eventType,
			Headers:      amqp.Table{eventTypeHeader: eventType},
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	log.Debug().Str("event", eventType).Int("bytes", len(body)).Msg("recipe event published")
	return nil
}

// ConsumeRecipeEvents processes recipe events in a background goroutine until the channel closes.
// A handler error nacks the message without requeueing it.
func (c *Client) ConsumeRecipeEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}
	if err := declareQueue(c.channel); err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		RecipeEventsQueue, // queue
		"",                // consumer tag
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			dispatch(msg, handler)
		}
		log.Info().Str("queue", RecipeEventsQueue).Msg("recipe event consumer stopped")
	}()
	return nil
}

func dispatch(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	if err := handler(msg); err != nil {
		log.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to process recipe event")
		// A malformed event will not get better on redelivery.
		if nackErr := msg.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to nack message")
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		log.Error().Err(ackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to ack message")
	}
}

// RecipeEvent is the decoded form of a recipe event message.
type RecipeEvent struct {
	Type       string    `json:"-"`
	RecipeID   uint      `json:"recipe_id"`
	OwnerID    uint      `json:"owner_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DecodeRecipeEvent parses a delivery produced by Publish.
func DecodeRecipeEvent(msg amqp.Delivery) (RecipeEvent, error) {
	var event RecipeEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return RecipeEvent{}, fmt.Errorf("invalid recipe event body: %w", err)
	}
	event.Type = msg.Type
	if t, ok := msg.Headers[eventTypeHeader].(string); ok && t != "" {
		event.Type = t
	}
	if event.Type == "" || event.RecipeID == 0 {
		return RecipeEvent{}, fmt.Errorf("recipe event is missing type or recipe id")
	}
	return event, nil
}

// LogRecipeEvent is the default consumer handler: it records each event in the log.
func LogRecipeEvent(msg amqp.Delivery) error {
	event, err := DecodeRecipeEvent(msg)
	if err != nil {
		return err
	}
	log.Info().
		Str("event", event.Type).
		Uint("recipe_id", event.RecipeID).
		Uint("owner_id", event.OwnerID).
		Time("occurred_at", event.OccurredAt).
		Msg("recipe event received")
	return nil
}
