package syncclient

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Config параметры переподключения
type Config struct {
	// BaseDelay первая задержка экспоненциального backoff
	BaseDelay time.Duration
	// MaxDelay верхняя граница задержки
	MaxDelay time.Duration
	// MaxAttempts количество подряд неудачных попыток, 0 - без ограничения
	MaxAttempts uint64
}

// DefaultConfig параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  30 * time.Second,
	}
}

// Client поддерживает копию слотов парковки в актуальном состоянии:
// подписка, снимок, применение событий; при обрыве - задержка и новый снимок.
type Client struct {
	source Source
	mirror *Mirror
	cfg    Config
	logger Logger

	onSnapshot func(m *Mirror)
	onEvent    func(m *Mirror, event domain.SlotChangeEvent)
}

// Option настройка клиента
type Option func(*Client)

// OnSnapshot вызывается после замены копии снимком
func OnSnapshot(fn func(m *Mirror)) Option {
	return func(c *Client) { c.onSnapshot = fn }
}

// OnEvent вызывается после применения события к копии
func OnEvent(fn func(m *Mirror, event domain.SlotChangeEvent)) Option {
	return func(c *Client) { c.onEvent = fn }
}

// NewClient создает клиент синхронизации парковки
func NewClient(source Source, layoutID int64, cfg Config, logger Logger, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = def.MaxDelay
		if cfg.MaxDelay < cfg.BaseDelay {
			cfg.MaxDelay = cfg.BaseDelay
		}
	}

	c := &Client{
		source: source,
		mirror: NewMirror(layoutID),
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mirror копия слотов
func (c *Client) Mirror() *Mirror {
	return c.mirror
}

// Run синхронизирует копию до отмены контекста.
// Возвращает nil при отмене, ошибку - если парковка не найдена или исчерпаны попытки.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
			err := c.session(ctx)
			switch {
			case err == nil, errors.Is(err, errSessionEnded):
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, ErrLayoutNotFound):
				return err
			default:
				c.logger.Warn("Sync of layout %d failed, retrying: %v", c.mirror.LayoutID(), err)
				return retry.RetryableError(err)
			}
		})

		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		// сессия была успешной, переподключаемся с новым backoff после паузы
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.BaseDelay):
		}
	}
}

func (c *Client) backoff() retry.Backoff {
	b := retry.NewExponential(c.cfg.BaseDelay)
	b = retry.WithCappedDuration(c.cfg.MaxDelay, b)
	if c.cfg.MaxAttempts > 0 {
		b = retry.WithMaxRetries(c.cfg.MaxAttempts, b)
	}
	return b
}

// session одна сессия: подписка до снимка, чтобы не потерять события между ними
func (c *Client) session(ctx context.Context) error {
	layoutID := c.mirror.LayoutID()

	stream, err := c.source.Subscribe(ctx, layoutID)
	if err != nil {
		return err
	}
	defer stream.Close()

	slots, err := c.source.Snapshot(ctx, layoutID)
	if err != nil {
		return err
	}

	c.mirror.ReplaceSnapshot(slots)
	c.logger.Info("Layout %d synchronized: %d slots", layoutID, len(slots))
	if c.onSnapshot != nil {
		c.onSnapshot(c.mirror)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-stream.Events():
			if !ok {
				c.logger.Warn("Event stream of layout %d ended: %v", layoutID, stream.Err())
				return errSessionEnded
			}
			if c.mirror.Apply(event) && c.onEvent != nil {
				c.onEvent(c.mirror, event)
			}
		}
	}
}
