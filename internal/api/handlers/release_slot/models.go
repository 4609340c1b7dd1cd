package release_slot

import (
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
	"github.com/m04kA/SMC-ParkingService/internal/usecase/reservation"
)

// ReleaseSlotResponse освобожденный слот и закрытое бронирование
type ReleaseSlotResponse struct {
	models.SlotResponse
	Booking *models.BookingResponse `json:"booking,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reservation.ReleaseResponse) *ReleaseSlotResponse {
	out := &ReleaseSlotResponse{SlotResponse: models.FromDomainSlot(resp.Slot)}
	if resp.Booking != nil {
		b := models.FromDomainBooking(resp.Booking)
		out.Booking = &b
	}
	return out
}
