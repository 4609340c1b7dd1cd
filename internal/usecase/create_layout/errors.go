package create_layout

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("create_layout: %w", domain.ErrValidation)

	// ErrNoEnabledTiers возвращается, когда ни один тип транспорта не имеет цены и количества мест
	ErrNoEnabledTiers = fmt.Errorf("create_layout: no vehicle type has both price and slot count: %w", domain.ErrValidation)

	// ErrDuplicateLabel возвращается, когда диапазоны меток разных типов транспорта пересекаются
	ErrDuplicateLabel = fmt.Errorf("create_layout: duplicate slot label: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_layout: internal error")
)
