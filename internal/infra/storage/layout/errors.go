package layout

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrLayoutNotFound возвращается, когда парковка не найдена
	ErrLayoutNotFound = fmt.Errorf("layout.repository: %w", domain.ErrLayoutNotFound)

	// ErrDuplicateTier возвращается при повторном имени типа транспорта в одной парковке
	ErrDuplicateTier = errors.New("layout.repository: duplicate vehicle type name")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("layout.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("layout.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("layout.repository: failed to scan row")
)
