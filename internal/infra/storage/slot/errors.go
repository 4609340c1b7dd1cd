package slot

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = fmt.Errorf("slot.repository: %w", domain.ErrSlotNotFound)

	// ErrStatusConflict возвращается, когда условный переход статуса отклонён:
	// текущий статус (или версия) слота не совпадает с ожидаемым
	ErrStatusConflict = errors.New("slot.repository: status conflict")

	// ErrDuplicateLabel возвращается при нарушении уникальности метки слота в парковке
	ErrDuplicateLabel = errors.New("slot.repository: duplicate slot label")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("slot.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("slot.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("slot.repository: failed to scan row")
)
