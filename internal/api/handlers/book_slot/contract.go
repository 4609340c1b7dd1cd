package book_slot

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/usecase/reservation"
)

type Coordinator interface {
	Book(ctx context.Context, req *reservation.BookRequest) (*reservation.BookResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
