package create_layout

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// LayoutRepository интерфейс репозитория парковок
type LayoutRepository interface {
	Create(ctx context.Context, layout *domain.Layout) (*domain.Layout, error)
	CreateTier(ctx context.Context, tier *domain.VehicleTypeTier) (*domain.VehicleTypeTier, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []*domain.Slot) ([]*domain.Slot, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
