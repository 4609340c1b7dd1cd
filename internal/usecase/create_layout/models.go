package create_layout

import (
	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Request модель запроса на создание парковки
type Request struct {
	OwnerID   int64    // ID владельца (вызывающий пользователь)
	Name      string   // Название парковки
	Location  string   // Адрес
	City      *string  // Город (опционально)
	Latitude  *float64 // Широта (опционально)
	Longitude *float64 // Долгота (опционально)

	// Типы транспорта. Участвуют только типы с ценой и количеством мест больше нуля.
	Tiers []domain.TierSpec
}

// Response модель ответа с созданной парковкой
type Response struct {
	Layout *domain.Layout
	Tiers  []*domain.VehicleTypeTier
	Slots  []*domain.Slot
}
