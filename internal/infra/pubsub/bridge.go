// Package pubsub доставляет изменения слотов между инстансами сервиса через Redis Pub/Sub.
// Каждой парковке соответствует отдельный канал prefix+layoutID.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// healthCheckInterval период проверки соединения подписки при отсутствии сообщений
const healthCheckInterval = 30 * time.Second

// Bridge транспорт событий слотов поверх Redis
type Bridge struct {
	client      *redis.Client
	prefix      string
	healthCheck time.Duration
	logger      Logger
}

// NewBridge создает транспорт событий
func NewBridge(client *redis.Client, channelPrefix string, logger Logger) *Bridge {
	return &Bridge{
		client:      client,
		prefix:      channelPrefix,
		healthCheck: healthCheckInterval,
		logger:      logger,
	}
}

// Publish публикует событие в канал парковки
func (b *Bridge) Publish(ctx context.Context, event domain.SlotChangeEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	if err := b.client.Publish(ctx, channelName(b.prefix, event.LayoutID), payload).Err(); err != nil {
		return fmt.Errorf("%w: layout %d: %v", ErrPublish, event.LayoutID, err)
	}

	return nil
}

// Run подписывается на каналы всех парковок и передает события в deliver до отмены ctx.
// ready вызывается после подтверждения подписки. Любой обрыв соединения завершает Run с ошибкой:
// переподключение go-redis теряет сообщения без уведомления, поэтому повтор остается вызывающему.
func (b *Bridge) Run(ctx context.Context, ready func(), deliver func(domain.SlotChangeEvent)) error {
	sub := b.client.PSubscribe(ctx, b.prefix+"*")

	// чтение подписки не прерывается отменой ctx, поэтому закрываем её
	stop := context.AfterFunc(ctx, func() { _ = sub.Close() })
	defer func() {
		if stop() {
			if err := sub.Close(); err != nil {
				b.logger.Warn("pubsub: failed to close subscription: %v", err)
			}
		}
	}()

	// Дожидаемся подтверждения подписки, иначе ранние события потеряются
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrSubscribe, err)
	}

	b.logger.Info("pubsub: listening on %s*", b.prefix)
	ready()

	for {
		msg, err := sub.ReceiveTimeout(ctx, b.healthCheck)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if isTimeout(err) {
				if err := sub.Ping(ctx); err != nil {
					return fmt.Errorf("%w: ping: %v", ErrReceive, err)
				}
				continue
			}
			return fmt.Errorf("%w: %v", ErrReceive, err)
		}

		switch m := msg.(type) {
		case *redis.Message:
			event, err := decodeEvent(m.Payload)
			if err != nil {
				b.logger.Warn("pubsub: skipping message on %s: %v", m.Channel, err)
				continue
			}
			deliver(event)
		case *redis.Subscription:
			// повторное подтверждение означает переподключение с пропуском сообщений
			return fmt.Errorf("%w: resubscribed to %s", ErrReceive, m.Channel)
		case *redis.Pong:
		}
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Ping проверяет доступность Redis
func (b *Bridge) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func channelName(prefix string, layoutID int64) string {
	return prefix + strconv.FormatInt(layoutID, 10)
}

func encodeEvent(event domain.SlotChangeEvent) ([]byte, error) {
	return json.Marshal(event)
}

func decodeEvent(payload string) (domain.SlotChangeEvent, error) {
	var event domain.SlotChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if event.LayoutID <= 0 || event.SlotID <= 0 || !event.Status.IsValid() {
		return event, fmt.Errorf("%w: incomplete event %q", ErrDecode, payload)
	}

	return event, nil
}
