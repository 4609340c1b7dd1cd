package slots

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrLayoutNotFound возвращается, когда парковка не найдена
	ErrLayoutNotFound = fmt.Errorf("slots: %w", domain.ErrLayoutNotFound)

	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = fmt.Errorf("slots: %w", domain.ErrSlotNotFound)

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("slots: %w", domain.ErrBookingNotFound)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("slots: internal error")
)
