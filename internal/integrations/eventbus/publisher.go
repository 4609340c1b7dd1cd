// Package eventbus публикует события бронирований в RabbitMQ (topic exchange)
// для биллинга и аналитики. Доставка best-effort: ошибка публикации не отменяет бронирование.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

const exchangeKind = "topic"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher публикатор событий бронирований
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	closed   bool
	logger   Logger
}

// NewPublisher подключается к RabbitMQ и объявляет exchange
func NewPublisher(url, exchange string, logger Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: channel: %v", ErrConnect, err)
	}

	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: exchange declare: %v", ErrConnect, err)
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// PublishBookingCreated публикует событие создания бронирования
func (p *Publisher) PublishBookingCreated(ctx context.Context, booking *domain.Booking) error {
	return p.publish(ctx, RoutingKeyBookingCreated, newBookingMessage(RoutingKeyBookingCreated, booking))
}

// PublishBookingReleased публикует событие освобождения бронирования
func (p *Publisher) PublishBookingReleased(ctx context.Context, booking *domain.Booking) error {
	return p.publish(ctx, RoutingKeyBookingReleased, newBookingMessage(RoutingKeyBookingReleased, booking))
}

func (p *Publisher) publish(ctx context.Context, routingKey string, msg BookingMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrPublish, err)
	}

	// amqp.Channel не допускает конкурентную публикацию
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	// пока ждали канал, срок публикации мог истечь
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublish, routingKey, err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublish, routingKey, err)
	}

	p.logger.Info("eventbus: published %s for booking id=%d", routingKey, msg.BookingID)
	return nil
}

// Close закрывает канал и соединение
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
