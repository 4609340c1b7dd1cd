package get_layout

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/layouts"
)

const (
	msgInvalidLayoutID = "некорректный ID парковки"
	msgNotFound        = "парковка не найдена"
)

type Handler struct {
	service LayoutService
	logger  Logger
}

func NewHandler(service LayoutService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/layouts/{layoutId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	layoutID, err := handlers.PathID(r, "layoutId")
	if err != nil {
		h.logger.Warn("GET /layouts/{id} - Invalid layout ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidLayoutID)
		return
	}

	layout, err := h.service.GetByID(r.Context(), layoutID)
	if err != nil {
		if errors.Is(err, layouts.ErrLayoutNotFound) {
			h.logger.Warn("GET /layouts/{id} - Layout not found: layout_id=%d", layoutID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("GET /layouts/{id} - Failed to get layout: layout_id=%d, error=%v", layoutID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, layout)
}
