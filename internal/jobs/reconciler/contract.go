package reconciler

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// SlotRepository интерфейс для работы со слотами
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	CompareAndSwapStatus(ctx context.Context, cas domain.StatusCAS) (*domain.Slot, error)
	ListOccupiedWithoutActiveBooking(ctx context.Context) ([]*domain.Slot, error)
}

// BookingRepository интерфейс для работы с бронированиями
type BookingRepository interface {
	GetActiveBySlotID(ctx context.Context, slotID int64) (*domain.Booking, error)
	ListActiveOnAvailableSlots(ctx context.Context) ([]*domain.Booking, error)
	MarkReleased(ctx context.Context, id int64, at time.Time, by int64) (*domain.Booking, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier рассылка изменений слотов
type Notifier interface {
	Publish(ctx context.Context, event domain.SlotChangeEvent)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальная реализация TimeProvider
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
