package create_layout

import (
	"context"

	createLayout "github.com/m04kA/SMC-ParkingService/internal/usecase/create_layout"
)

type CreateLayoutUseCase interface {
	Execute(ctx context.Context, req *createLayout.Request) (*createLayout.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
