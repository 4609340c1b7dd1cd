package get_slot_bookings

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots"
)

const (
	msgInvalidSlotID = "некорректный ID места"
	msgNotFound      = "место не найдено"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/slots/{slotId}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slotID, err := handlers.PathID(r, "slotId")
	if err != nil {
		h.logger.Warn("GET /slots/{id}/bookings - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	history, err := h.service.GetSlotBookings(r.Context(), slotID)
	if err != nil {
		if errors.Is(err, slots.ErrSlotNotFound) {
			h.logger.Warn("GET /slots/{id}/bookings - Slot not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("GET /slots/{id}/bookings - Failed to get bookings: slot_id=%d, error=%v", slotID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, history)
}
