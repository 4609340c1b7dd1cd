package get_layout_slots

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
)

type SlotService interface {
	GetLayoutSlots(ctx context.Context, id int64) (*models.SlotListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
