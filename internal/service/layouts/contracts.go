package layouts

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// LayoutRepository интерфейс репозитория парковок
type LayoutRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Layout, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Layout, error)
	ListTiers(ctx context.Context, layoutID int64) ([]*domain.VehicleTypeTier, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
