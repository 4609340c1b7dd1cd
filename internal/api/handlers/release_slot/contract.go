package release_slot

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/usecase/reservation"
)

type Coordinator interface {
	Release(ctx context.Context, req *reservation.ReleaseRequest) (*reservation.ReleaseResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
