package layout_events

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/notifier"
)

type LayoutService interface {
	Exists(ctx context.Context, id int64) error
}

type Notifier interface {
	Subscribe(ctx context.Context, layoutID int64) (*notifier.Subscription, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
