package reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	CompareAndSwapStatus(ctx context.Context, cas domain.StatusCAS) (*domain.Slot, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetActiveBySlotID(ctx context.Context, slotID int64) (*domain.Booking, error)
	MarkReleased(ctx context.Context, id int64, at time.Time, by int64) (*domain.Booking, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier рассылка изменений слотов подписчикам парковки
type Notifier interface {
	Publish(ctx context.Context, event domain.SlotChangeEvent)
}

// BookingEventPublisher публикация событий жизненного цикла бронирования во внешнюю шину
type BookingEventPublisher interface {
	PublishBookingCreated(ctx context.Context, booking *domain.Booking) error
	PublishBookingReleased(ctx context.Context, booking *domain.Booking) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
