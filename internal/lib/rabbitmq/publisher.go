// Package rabbitmq публикует JSON-события в RabbitMQ.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// ErrPublisherClosed возвращается при публикации после Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует события в один обменник.
// amqp.Channel не потокобезопасен, поэтому публикация идёт под мьютексом.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewPublisher оборачивает уже настроенный канал. conn может быть nil,
// если соединением владеет вызывающий код.
func NewPublisher(conn *amqp.Connection, ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{conn: conn, ch: ch, exchange: exchange}
}

// Publish отправляет message с ключом routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, message any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rabbitmq.Publish: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return ErrPublisherClosed
	}
	return PublishMessage(p.ch, p.exchange, routingKey, message)
}

// Close закрывает канал и соединение.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
		p.conn = nil
	}
	return err
}

// EventPublisher описывает публикацию событий с освобождением ресурсов.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
	Close() error
}

var (
	_ EventPublisher = (*Publisher)(nil)
	_ EventPublisher = NoopPublisher{}
)

// NoopPublisher используется, когда брокер не настроен.
type NoopPublisher struct{}

// Publish ничего не делает.
func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// Close ничего не делает.
func (NoopPublisher) Close() error { return nil }
