package create_layout

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	createLayout "github.com/m04kA/SMC-ParkingService/internal/usecase/create_layout"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNoEnabledTiers     = "нужен хотя бы один тип транспорта с ценой и количеством мест"
	msgDuplicateLabel     = "метки мест разных типов транспорта пересекаются"
	msgInvalidInput       = "некорректные данные парковки"
)

type Handler struct {
	useCase CreateLayoutUseCase
	logger  Logger
}

func NewHandler(useCase CreateLayoutUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/layouts
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /layouts - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateLayoutRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /layouts - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, createLayout.ErrNoEnabledTiers):
			h.logger.Warn("POST /layouts - No enabled vehicle types: user_id=%d", userID)
			handlers.RespondBadRequest(w, msgNoEnabledTiers)

		case errors.Is(err, createLayout.ErrDuplicateLabel):
			h.logger.Warn("POST /layouts - Duplicate labels: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgDuplicateLabel)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("POST /layouts - Validation failed: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidInput+": "+err.Error())

		default:
			h.logger.Error("POST /layouts - Failed to create layout: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /layouts - Layout created: layout_id=%d, slots=%d, user_id=%d",
		result.Layout.ID, len(result.Slots), userID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
