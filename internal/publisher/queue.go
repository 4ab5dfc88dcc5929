package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"hangmantrainer/internal/config"
	"hangmantrainer/internal/models"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueCollector publishes each result as JSON to a durable RabbitMQ queue
type QueueCollector struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel amqpPublisher
	queue   string
}

func NewQueueCollector(cfg config.AMQPConfig) (*QueueCollector, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &QueueCollector{conn: conn, channel: channel, queue: cfg.Queue}, nil
}

func (c *QueueCollector) Name() string {
	return "queue"
}

func (c *QueueCollector) Collect(ctx context.Context, result models.LevelResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.channel.PublishWithContext(
		ctx,
		"",      // exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

func (c *QueueCollector) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
