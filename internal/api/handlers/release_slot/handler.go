package release_slot

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
	msgMissingUserID       = "отсутствует ID пользователя"
	msgNotFound            = "место не найдено"
	msgSlotAlreadyReleased = "место только что освободил кто-то другой"
	msgOutcomeUnknown      = "результат освобождения неизвестен, обновите состояние места"
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

// Handle POST /api/v1/slots/{slotId}/release
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slotID, err := handlers.PathID(r, "slotId")
	if err != nil {
		h.logger.Warn("POST /slots/{id}/release - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /slots/{id}/release - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.coordinator.Release(r.Context(), &reservation.ReleaseRequest{SlotID: slotID, ActorID: userID})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("POST /slots/{id}/release - Slot not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrSlotAlreadyAvailable):
			h.logger.Warn("POST /slots/{id}/release - Slot already available: slot_id=%d, user_id=%d", slotID, userID)
			handlers.RespondConflict(w, handlers.CodeSlotAlreadyFree, msgSlotAlreadyReleased)

		case errors.Is(err, domain.ErrOutcomeUnknown):
			h.logger.Warn("POST /slots/{id}/release - Outcome unknown: slot_id=%d, error=%v", slotID, err)
			handlers.RespondServiceUnavailable(w, msgOutcomeUnknown)

		case errors.Is(err, domain.ErrTransientIO):
			h.logger.Warn("POST /slots/{id}/release - Transient failure: slot_id=%d, error=%v", slotID, err)
			handlers.RespondServiceUnavailable(w, msgTemporaryFailure)

		default:
			h.logger.Error("POST /slots/{id}/release - Failed to release slot: slot_id=%d, user_id=%d, error=%v",
				slotID, userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots/{id}/release - Slot released: slot_id=%d, version=%d, user_id=%d",
		slotID, result.Slot.Version, userID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
