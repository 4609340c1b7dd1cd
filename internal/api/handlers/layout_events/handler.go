package layout_events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/layouts"
	"github.com/m04kA/SMC-ParkingService/internal/service/notifier"
)

const (
	msgInvalidLayoutID    = "некорректный ID парковки"
	msgNotFound           = "парковка не найдена"
	msgStreamsUnavailable = "поток изменений временно недоступен"

	eventSlot   = "slot"
	eventResync = "resync"

	writeTimeout = 10 * time.Second
)

type Handler struct {
	layouts   LayoutService
	notifier  Notifier
	heartbeat time.Duration
	logger    Logger
}

func NewHandler(layouts LayoutService, n Notifier, heartbeat time.Duration, logger Logger) *Handler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &Handler{
		layouts:   layouts,
		notifier:  n,
		heartbeat: heartbeat,
		logger:    logger,
	}
}

// Handle GET /api/v1/layouts/{layoutId}/events
//
// Поток text/event-stream: "event: slot" на каждое изменение слота,
// комментарий-heartbeat и "event: resync", если клиент отстал и должен заново получить снимок.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	layoutID, err := handlers.PathID(r, "layoutId")
	if err != nil {
		h.logger.Warn("GET /layouts/{id}/events - Invalid layout ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidLayoutID)
		return
	}

	if err := h.layouts.Exists(r.Context(), layoutID); err != nil {
		if errors.Is(err, layouts.ErrLayoutNotFound) {
			h.logger.Warn("GET /layouts/{id}/events - Layout not found: layout_id=%d", layoutID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("GET /layouts/{id}/events - Failed to check layout: layout_id=%d, error=%v", layoutID, err)
		handlers.RespondInternalError(w)
		return
	}

	// Подписка до ответа: после получения заголовков клиент может брать снимок
	sub, err := h.notifier.Subscribe(r.Context(), layoutID)
	if err != nil {
		h.logger.Warn("GET /layouts/{id}/events - Subscribe failed: layout_id=%d, error=%v", layoutID, err)
		handlers.RespondServiceUnavailable(w, msgStreamsUnavailable)
		return
	}
	defer sub.Close()

	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := h.flush(rc); err != nil {
		h.logger.Warn("GET /layouts/{id}/events - Flush failed: layout_id=%d, error=%v", layoutID, err)
		return
	}

	h.logger.Info("GET /layouts/{id}/events - Stream opened: layout_id=%d", layoutID)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("GET /layouts/{id}/events - Client disconnected: layout_id=%d", layoutID)
			return

		case <-ticker.C:
			if err := h.write(rc, w, ": ping\n\n"); err != nil {
				h.logger.Warn("GET /layouts/{id}/events - Heartbeat failed: layout_id=%d, error=%v", layoutID, err)
				return
			}

		case event, ok := <-sub.Events():
			if !ok {
				h.closed(rc, w, layoutID, sub.Err())
				return
			}
			if err := h.writeEvent(rc, w, event); err != nil {
				h.logger.Warn("GET /layouts/{id}/events - Write failed: layout_id=%d, error=%v", layoutID, err)
				return
			}
		}
	}
}

// closed сообщает клиенту, что нужно заново получить снимок
func (h *Handler) closed(rc *http.ResponseController, w http.ResponseWriter, layoutID int64, reason error) {
	switch {
	case errors.Is(reason, notifier.ErrSubscriberLagged), errors.Is(reason, notifier.ErrClosed):
		h.logger.Warn("GET /layouts/{id}/events - Stream closed: layout_id=%d, reason=%v", layoutID, reason)
		_ = h.write(rc, w, fmt.Sprintf("event: %s\ndata: {}\n\n", eventResync))
	default:
		h.logger.Info("GET /layouts/{id}/events - Stream closed: layout_id=%d, reason=%v", layoutID, reason)
	}
}

func (h *Handler) writeEvent(rc *http.ResponseController, w http.ResponseWriter, event domain.SlotChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.write(rc, w, fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", event.ID, eventSlot, data))
}

func (h *Handler) write(rc *http.ResponseController, w http.ResponseWriter, msg string) error {
	// Дедлайн на каждую запись: зависший клиент не держит подписку вечно
	_ = rc.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := fmt.Fprint(w, msg); err != nil {
		return err
	}
	return h.flush(rc)
}

func (h *Handler) flush(rc *http.ResponseController) error {
	_ = rc.SetWriteDeadline(time.Now().Add(writeTimeout))
	return rc.Flush()
}
