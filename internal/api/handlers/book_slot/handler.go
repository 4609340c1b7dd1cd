package book_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/usecase/reservation"
)

const (
	msgInvalidSlotID       = "некорректный ID места"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgMissingUserID       = "отсутствует ID пользователя"
	msgNotFound            = "место не найдено"
	msgSlotOccupied        = "место только что занял кто-то другой"
	msgVehicleTypeMismatch = "тип транспорта не подходит для этого места"
	msgInvalidInput        = "некорректные данные бронирования"
	msgOutcomeUnknown      = "результат бронирования неизвестен, обновите состояние места"
	msgTemporaryFailure    = "хранилище временно недоступно, повторите попытку"
)

type Handler struct {
	coordinator Coordinator
	logger      Logger
}

func NewHandler(coordinator Coordinator, logger Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// Handle POST /api/v1/slots/{slotId}/book
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slotID, err := handlers.PathID(r, "slotId")
	if err != nil {
		h.logger.Warn("POST /slots/{id}/book - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /slots/{id}/book - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req BookSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /slots/{id}/book - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.coordinator.Book(r.Context(), req.ToUseCaseRequest(slotID, userID))
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrVehicleTypeMismatch):
			h.logger.Warn("POST /slots/{id}/book - Vehicle type mismatch: slot_id=%d", slotID)
			handlers.RespondBadRequest(w, msgVehicleTypeMismatch)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("POST /slots/{id}/book - Validation failed: slot_id=%d, error=%v", slotID, err)
			handlers.RespondBadRequest(w, msgInvalidInput+": "+err.Error())

		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("POST /slots/{id}/book - Slot not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrSlotOccupied):
			h.logger.Warn("POST /slots/{id}/book - Slot occupied: slot_id=%d, user_id=%d", slotID, userID)
			handlers.RespondConflict(w, handlers.CodeSlotOccupied, msgSlotOccupied)

		case errors.Is(err, domain.ErrOutcomeUnknown):
			h.logger.Warn("POST /slots/{id}/book - Outcome unknown: slot_id=%d, error=%v", slotID, err)
			handlers.RespondServiceUnavailable(w, msgOutcomeUnknown)

		case errors.Is(err, domain.ErrTransientIO):
			h.logger.Warn("POST /slots/{id}/book - Transient failure: slot_id=%d, error=%v", slotID, err)
			handlers.RespondServiceUnavailable(w, msgTemporaryFailure)

		default:
			h.logger.Error("POST /slots/{id}/book - Failed to book slot: slot_id=%d, user_id=%d, error=%v",
				slotID, userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots/{id}/book - Slot booked: slot_id=%d, booking_id=%d, user_id=%d",
		slotID, result.Booking.ID, userID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
