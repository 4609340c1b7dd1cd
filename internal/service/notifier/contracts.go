package notifier

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Transport межинстансовая доставка событий (Redis Pub/Sub).
// Publish отправляет событие всем инстансам, включая текущий.
// Run вызывает ready после подтверждения подписки и передает принятые события в deliver.
// Run возвращает управление при отмене ctx или потере приема; события в разрыве могли потеряться.
type Transport interface {
	Publish(ctx context.Context, event domain.SlotChangeEvent) error
	Run(ctx context.Context, ready func(), deliver func(domain.SlotChangeEvent)) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
