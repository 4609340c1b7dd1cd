package reservation

import (
	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// BookRequest модель запроса на бронирование слота
type BookRequest struct {
	SlotID        int64  // ID слота
	CustomerName  string // Имя клиента
	VehicleNumber string // Госномер
	VehicleType   string // Тип транспорта (опционально, должен совпадать с типом слота)
	DurationHours int    // Длительность в часах
	ActorID       int64  // Кто бронирует (аудит)
}

// BookResponse результат бронирования
type BookResponse struct {
	Booking *domain.Booking
	Slot    *domain.Slot
}

// ReleaseRequest модель запроса на освобождение слота
type ReleaseRequest struct {
	SlotID  int64 // ID слота
	ActorID int64 // Кто освобождает (аудит)
}

// ReleaseResponse результат освобождения слота
type ReleaseResponse struct {
	Slot *domain.Slot

	// Освобожденное бронирование. nil, если занятый слот не имел активного бронирования.
	Booking *domain.Booking
}
