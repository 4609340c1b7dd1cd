package get_layout_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots"
)

const (
	msgInvalidLayoutID = "некорректный ID парковки"
	msgNotFound        = "парковка не найдена"
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

// Handle GET /api/v1/layouts/{layoutId}/slots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	layoutID, err := handlers.PathID(r, "layoutId")
	if err != nil {
		h.logger.Warn("GET /layouts/{id}/slots - Invalid layout ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidLayoutID)
		return
	}

	list, err := h.service.GetLayoutSlots(r.Context(), layoutID)
	if err != nil {
		if errors.Is(err, slots.ErrLayoutNotFound) {
			h.logger.Warn("GET /layouts/{id}/slots - Layout not found: layout_id=%d", layoutID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("GET /layouts/{id}/slots - Failed to get slots: layout_id=%d, error=%v", layoutID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, list)
}
