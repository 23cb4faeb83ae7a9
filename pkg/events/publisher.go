package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "order.events"

// Routing keys for order lifecycle events.
const (
	OrderPlaced    = "order.placed"
	OrderPaid      = "order.paid"
	OrderDelivered = "order.delivered"
)

// Publisher pushes order lifecycle events to a topic exchange. A nil
// Publisher drops events, so callers never have to branch on configuration.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to RabbitMQ and declares the order.events exchange.
// Returns nil when url is empty.
func NewPublisher(url string) (*Publisher, error) {
	if url == "" {
		log.Println("RabbitMQ not configured, order events disabled")
		return nil, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Println("RabbitMQ connected successfully")
	return &Publisher{conn: conn, channel: ch}, nil
}

// Publish sends payload as JSON under the given routing key. Failures are
// logged, not propagated: the order state change has already committed.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}) {
	if p == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: marshal %s: %v", routingKey, err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(pubCtx, exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		log.Printf("events: publish %s: %v", routingKey, err)
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.channel.Close()
	p.conn.Close()
}
