package lib

import (
	"context"
	"eventbooking/src/types"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitClient struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
}

func NewRabbitClient(url, exchange, queue string) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Printf("[rabbitmq] failed to connect: %s\n", err.Error())
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		log.Printf("[rabbitmq] failed to open channel: %s\n", err.Error())
		return nil, err
	}
	client := &RabbitClient{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		queue:    queue,
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		client.Close()
		log.Printf("[rabbitmq] failed to declare exchange: %s\n", err.Error())
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		client.Close()
		log.Printf("[rabbitmq] failed to declare queue: %s\n", err.Error())
		return nil, err
	}
	if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
		client.Close()
		log.Printf("[rabbitmq] failed to bind queue: %s\n", err.Error())
		return nil, err
	}
	log.Printf("[rabbitmq] initialized (exchange=%s, queue=%s)\n", exchange, queue)
	return client, nil
}

func (c *RabbitClient) Publish(ctx context.Context, activity Activity) error {
	body, err := activity.Encode()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.PublishWithContext(ctx, c.exchange, string(activity.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    activity.ID,
		Type:         string(activity.Type),
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		log.Printf("[rabbitmq] failed to publish %s: %s\n", activity.ID, err.Error())
	}
	return err
}

// Consume acks a delivery once handler accepts it. A failed delivery is
// requeued once and then rejected, which dead-letters it when the queue has
// a dead letter exchange.
func (c *RabbitClient) Consume(handler types.Handler) error {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		log.Printf("[rabbitmq] failed to start consuming: %s\n", err.Error())
		return err
	}
	go func() {
		for d := range msgs {
			settle(d, handler(string(d.Body)))
		}
	}()
	log.Printf("[rabbitmq] consuming from queue %s\n", c.queue)
	return nil
}

func settle(d amqp.Delivery, err error) {
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Printf("[rabbitmq] failed to ack %s: %s\n", d.MessageId, ackErr.Error())
		}
		return
	}
	log.Printf("[rabbitmq] handler failed for %s (redelivered=%t): %s\n", d.MessageId, d.Redelivered, err.Error())
	if nackErr := d.Nack(false, !d.Redelivered); nackErr != nil {
		log.Printf("[rabbitmq] failed to nack %s: %s\n", d.MessageId, nackErr.Error())
	}
}

func (c *RabbitClient) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
