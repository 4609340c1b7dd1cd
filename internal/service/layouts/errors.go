package layouts

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrLayoutNotFound возвращается, когда парковка не найдена
	ErrLayoutNotFound = fmt.Errorf("layouts: %w", domain.ErrLayoutNotFound)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("layouts: internal error")
)
