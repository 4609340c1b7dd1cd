package list_layouts

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/layouts/models"
)

type LayoutService interface {
	ListByOwner(ctx context.Context, ownerID int64) (*models.LayoutListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
