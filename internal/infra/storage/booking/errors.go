package booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("booking.repository: %w", domain.ErrBookingNotFound)

	// ErrActiveBookingExists возвращается, когда у слота уже есть активное бронирование
	ErrActiveBookingExists = errors.New("booking.repository: slot already has an active booking")

	// ErrAlreadyReleased возвращается, когда бронирование уже освобождено
	ErrAlreadyReleased = errors.New("booking.repository: booking already released")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
