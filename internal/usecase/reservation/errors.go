package reservation

import (
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("reservation: %w", domain.ErrValidation)

	// ErrVehicleTypeMismatch возвращается, когда тип транспорта не совпадает с типом слота
	ErrVehicleTypeMismatch = fmt.Errorf("reservation: vehicle type does not match the slot: %w", domain.ErrValidation)

	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = fmt.Errorf("reservation: %w", domain.ErrSlotNotFound)

	// ErrSlotOccupied возвращается, когда слот уже занят (в том числе проигранная гонка)
	ErrSlotOccupied = fmt.Errorf("reservation: %w", domain.ErrSlotOccupied)

	// ErrSlotAlreadyAvailable возвращается, когда слот уже свободен (в том числе проигранная гонка)
	ErrSlotAlreadyAvailable = fmt.Errorf("reservation: %w", domain.ErrSlotAlreadyAvailable)

	// ErrTransient возвращается, когда хранилище недоступно. Изменения не сохранены.
	ErrTransient = fmt.Errorf("reservation: %w", domain.ErrTransientIO)

	// ErrPartialWrite возвращается, когда бронирование и статус слота могли разойтись
	ErrPartialWrite = fmt.Errorf("reservation: %w", domain.ErrPartialWrite)

	// ErrOutcomeUnknown возвращается, когда результат операции неизвестен (истек контекст, сбой фиксации).
	// Перед повтором нужно перечитать слот.
	ErrOutcomeUnknown = fmt.Errorf("reservation: %w", domain.ErrOutcomeUnknown)
)
