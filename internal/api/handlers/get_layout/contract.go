package get_layout

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/layouts/models"
)

type LayoutService interface {
	GetByID(ctx context.Context, id int64) (*models.LayoutResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
