package slots

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// LayoutRepository интерфейс репозитория парковок
type LayoutRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Layout, error)
}

// SlotRepository интерфейс чтения слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	GetByLayoutID(ctx context.Context, layoutID int64) ([]*domain.Slot, error)
}

// BookingRepository интерфейс чтения бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListBySlotID(ctx context.Context, slotID int64) ([]*domain.Booking, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
