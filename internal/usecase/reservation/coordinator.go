// Package reservation - единственное место, где меняется статус слота по запросу пользователя.
//
// Бронирование и освобождение выполняются одной транзакцией: условный переход статуса
// слота (CompareAndSwapStatus) и запись бронирования фиксируются вместе или не фиксируются вовсе.
// Из конкурирующих запросов на один слот побеждает первая зафиксированная транзакция.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

// defaultExportTimeout ограничивает ожидание публикации события бронирования
const defaultExportTimeout = 3 * time.Second

// Coordinator координатор бронирований
type Coordinator struct {
	slotRepo      SlotRepository
	bookingRepo   BookingRepository
	txManager     TransactionManager
	notifier      Notifier
	events        BookingEventPublisher
	metrics       *metrics.Metrics
	timeProvider  TimeProvider
	exportTimeout time.Duration
	logger        Logger
}

// NewCoordinator создает координатор бронирований.
// events и m могут быть nil.
func NewCoordinator(
	slotRepo SlotRepository,
	bookingRepo BookingRepository,
	txManager TransactionManager,
	notifier Notifier,
	events BookingEventPublisher,
	m *metrics.Metrics,
	logger Logger,
) *Coordinator {
	return &Coordinator{
		slotRepo:      slotRepo,
		bookingRepo:   bookingRepo,
		txManager:     txManager,
		notifier:      notifier,
		events:        events,
		metrics:       m,
		timeProvider:  &RealTimeProvider{},
		exportTimeout: defaultExportTimeout,
		logger:        logger,
	}
}

// Book занимает свободный слот и создает активное бронирование
func (c *Coordinator) Book(ctx context.Context, req *BookRequest) (*BookResponse, error) {
	c.logger.Info("Book: slot=%d, actor=%d, duration=%dh", req.SlotID, req.ActorID, req.DurationHours)

	resp, err := c.book(ctx, req)
	c.metrics.ObserveBooking(resultOf(err))

	return resp, err
}

func (c *Coordinator) book(ctx context.Context, req *BookRequest) (*BookResponse, error) {
	// 1. Валидация входных данных
	if err := validateBookRequest(req); err != nil {
		c.logger.Warn("Book: validation failed: %v", err)
		return nil, err
	}

	// 2. Читаем слот для быстрого отказа
	slot, err := c.slotRepo.GetByID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			c.logger.Warn("Book: slot id=%d not found", req.SlotID)
			return nil, ErrSlotNotFound
		}
		return nil, c.classify(ctx, "Book", req.SlotID, err)
	}

	if err := validateVehicleType(req.VehicleType, slot); err != nil {
		c.logger.Warn("Book: %v", err)
		return nil, err
	}

	if slot.IsOccupied() {
		c.logger.Warn("Book: slot id=%d is already occupied", req.SlotID)
		return nil, ErrSlotOccupied
	}

	now := c.timeProvider.Now()

	var (
		updated *domain.Slot
		created *domain.Booking
	)

	// 3. Переход статуса и создание бронирования в одной транзакции
	err = c.txManager.Do(ctx, func(txCtx context.Context) error {
		s, err := c.slotRepo.CompareAndSwapStatus(txCtx, domain.StatusCAS{
			SlotID: req.SlotID,
			From:   domain.SlotAvailable,
			To:     domain.SlotOccupied,
		})
		if err != nil {
			switch {
			case errors.Is(err, slotRepo.ErrStatusConflict):
				return ErrSlotOccupied
			case errors.Is(err, slotRepo.ErrSlotNotFound):
				return ErrSlotNotFound
			}
			return fmt.Errorf("compare-and-swap slot: %w", err)
		}

		b, err := c.bookingRepo.Create(txCtx, &domain.Booking{
			SlotID:        s.ID,
			LayoutID:      s.LayoutID,
			CustomerName:  strings.TrimSpace(req.CustomerName),
			VehicleNumber: strings.TrimSpace(req.VehicleNumber),
			VehicleType:   s.VehicleType,
			DurationHours: req.DurationHours,
			StartTime:     now,
			EndTime:       now.Add(time.Duration(req.DurationHours) * time.Hour),
			Status:        domain.BookingApproved,
			BookedBy:      req.ActorID,
		})
		if err != nil {
			if errors.Is(err, bookingRepo.ErrActiveBookingExists) {
				return ErrSlotOccupied
			}
			return fmt.Errorf("create booking: %w", err)
		}

		updated, created = s, b
		return nil
	})

	if err != nil {
		if errors.Is(err, domain.ErrSlotOccupied) && !errors.Is(err, txmanager.ErrRollback) {
			c.logger.Warn("Book: slot id=%d was taken concurrently", req.SlotID)
			return nil, ErrSlotOccupied
		}
		return nil, c.classify(ctx, "Book", req.SlotID, err)
	}

	c.logger.Info("Book: slot id=%d occupied by booking id=%d (version=%d)", updated.ID, created.ID, updated.Version)

	// 4. Уведомляем подписчиков после фиксации, даже если контекст запроса уже отменен
	pubCtx := context.WithoutCancel(ctx)
	c.notifier.Publish(pubCtx, domain.SlotChangeEvent{
		LayoutID:   updated.LayoutID,
		SlotID:     updated.ID,
		Status:     domain.SlotOccupied,
		BookingID:  ptr.Ptr(created.ID),
		Version:    updated.Version,
		OccurredAt: updated.UpdatedAt,
	})

	if c.events != nil {
		c.export(pubCtx, "Book", created.ID, func(ctx context.Context) error {
			return c.events.PublishBookingCreated(ctx, created)
		})
	}

	return &BookResponse{Booking: created, Slot: updated}, nil
}

// Release освобождает занятый слот и закрывает его активное бронирование
func (c *Coordinator) Release(ctx context.Context, req *ReleaseRequest) (*ReleaseResponse, error) {
	c.logger.Info("Release: slot=%d, actor=%d", req.SlotID, req.ActorID)

	resp, err := c.release(ctx, req)
	c.metrics.ObserveRelease(resultOf(err))

	return resp, err
}

func (c *Coordinator) release(ctx context.Context, req *ReleaseRequest) (*ReleaseResponse, error) {
	// 1. Валидация входных данных
	if err := validateReleaseRequest(req); err != nil {
		c.logger.Warn("Release: validation failed: %v", err)
		return nil, err
	}

	// 2. Читаем слот для быстрого отказа
	slot, err := c.slotRepo.GetByID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			c.logger.Warn("Release: slot id=%d not found", req.SlotID)
			return nil, ErrSlotNotFound
		}
		return nil, c.classify(ctx, "Release", req.SlotID, err)
	}

	if slot.IsAvailable() {
		c.logger.Warn("Release: slot id=%d is already available", req.SlotID)
		return nil, ErrSlotAlreadyAvailable
	}

	now := c.timeProvider.Now()

	var (
		updated  *domain.Slot
		released *domain.Booking
	)

	// 3. Переход статуса первым: блокировка строки слота упорядочивает конкурентные освобождения
	err = c.txManager.Do(ctx, func(txCtx context.Context) error {
		s, err := c.slotRepo.CompareAndSwapStatus(txCtx, domain.StatusCAS{
			SlotID: req.SlotID,
			From:   domain.SlotOccupied,
			To:     domain.SlotAvailable,
		})
		if err != nil {
			switch {
			case errors.Is(err, slotRepo.ErrStatusConflict):
				return ErrSlotAlreadyAvailable
			case errors.Is(err, slotRepo.ErrSlotNotFound):
				return ErrSlotNotFound
			}
			return fmt.Errorf("compare-and-swap slot: %w", err)
		}

		active, err := c.bookingRepo.GetActiveBySlotID(txCtx, req.SlotID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				// Занятый слот без бронирования: освобождение восстанавливает консистентность
				c.logger.Warn("Release: slot id=%d was occupied without an active booking", req.SlotID)
				updated = s
				return nil
			}
			return fmt.Errorf("get active booking: %w", err)
		}

		b, err := c.bookingRepo.MarkReleased(txCtx, active.ID, now, req.ActorID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrAlreadyReleased) {
				return ErrSlotAlreadyAvailable
			}
			return fmt.Errorf("mark booking released: %w", err)
		}

		updated, released = s, b
		return nil
	})

	if err != nil {
		if errors.Is(err, domain.ErrSlotAlreadyAvailable) && !errors.Is(err, txmanager.ErrRollback) {
			c.logger.Warn("Release: slot id=%d was released concurrently", req.SlotID)
			return nil, ErrSlotAlreadyAvailable
		}
		return nil, c.classify(ctx, "Release", req.SlotID, err)
	}

	c.logger.Info("Release: slot id=%d available (version=%d)", updated.ID, updated.Version)

	// 4. Уведомляем подписчиков после фиксации, даже если контекст запроса уже отменен
	pubCtx := context.WithoutCancel(ctx)
	c.notifier.Publish(pubCtx, domain.SlotChangeEvent{
		LayoutID:   updated.LayoutID,
		SlotID:     updated.ID,
		Status:     domain.SlotAvailable,
		Version:    updated.Version,
		OccurredAt: updated.UpdatedAt,
	})

	if c.events != nil && released != nil {
		c.export(pubCtx, "Release", released.ID, func(ctx context.Context) error {
			return c.events.PublishBookingReleased(ctx, released)
		})
	}

	return &ReleaseResponse{Slot: updated, Booking: released}, nil
}

// export публикует событие бронирования во внешнюю шину, ожидая не дольше exportTimeout.
// Зависшая публикация продолжается в фоне и не задерживает ответ.
func (c *Coordinator) export(ctx context.Context, op string, bookingID int64, publish func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, c.exportTimeout)
	done := make(chan error, 1)

	go func() {
		defer cancel()
		done <- publish(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			c.logger.Warn("%s: failed to export booking id=%d: %v", op, bookingID, err)
		}
	case <-ctx.Done():
		c.logger.Warn("%s: export of booking id=%d timed out after %s", op, bookingID, c.exportTimeout)
	}
}

// classify сводит ошибку хранилища или транзакции к таксономии координатора
func (c *Coordinator) classify(ctx context.Context, op string, slotID int64, err error) error {
	switch {
	case errors.Is(err, txmanager.ErrRollback):
		// Откат не подтвержден: статус слота и бронирование могли разойтись.
		// Расхождение исправит сверка.
		c.logger.Error("%s: slot id=%d: rollback failed, state may be inconsistent: %v", op, slotID, err)
		c.metrics.IncPartialWrites()
		return fmt.Errorf("%w: slot %d: %v", ErrPartialWrite, slotID, err)

	case errors.Is(err, domain.ErrSlotNotFound):
		return ErrSlotNotFound

	case errors.Is(err, txmanager.ErrCommit):
		c.logger.Error("%s: slot id=%d: commit outcome unknown: %v", op, slotID, err)
		return fmt.Errorf("%w: slot %d: %v", ErrOutcomeUnknown, slotID, err)

	case ctx.Err() != nil:
		c.logger.Warn("%s: slot id=%d: %v before a definitive result: %v", op, slotID, ctx.Err(), err)
		return fmt.Errorf("%w: slot %d: %w", ErrOutcomeUnknown, slotID, ctx.Err())
	}

	c.logger.Error("%s: slot id=%d: storage failure: %v", op, slotID, err)
	return fmt.Errorf("%w: slot %d: %v", ErrTransient, slotID, err)
}

// resultOf метка результата операции для метрик
func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrValidation):
		return metrics.ResultInvalid
	case errors.Is(err, domain.ErrSlotNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, domain.ErrSlotOccupied), errors.Is(err, domain.ErrSlotAlreadyAvailable):
		return metrics.ResultConflict
	case errors.Is(err, domain.ErrPartialWrite):
		return metrics.ResultPartialWrite
	case errors.Is(err, domain.ErrOutcomeUnknown):
		return metrics.ResultOutcomeUnknown
	}
	return metrics.ResultInternalError
}
