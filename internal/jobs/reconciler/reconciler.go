// Package reconciler периодически сверяет статусы слотов с активными бронированиями
// и исправляет расхождения, оставшиеся после неподтвержденного отката транзакции.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
)

// errSkip откатывает исправление: состояние изменилось после чтения
var errSkip = errors.New("reconciler: state changed, skip")

// Report результат одного прохода
type Report struct {
	OrphanedSlots int
	StrayBookings int
	Skipped       int
}

// Reconciler сверка слотов и бронирований
type Reconciler struct {
	slotRepo     SlotRepository
	bookingRepo  BookingRepository
	txManager    TransactionManager
	notifier     Notifier
	metrics      *metrics.Metrics
	timeProvider TimeProvider
	timeout      time.Duration
	logger       Logger
}

// NewReconciler создает сверку. timeout ограничивает один проход по расписанию.
func NewReconciler(
	slotRepo SlotRepository,
	bookingRepo BookingRepository,
	txManager TransactionManager,
	notifier Notifier,
	m *metrics.Metrics,
	timeout time.Duration,
	logger Logger,
) *Reconciler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Reconciler{
		slotRepo:     slotRepo,
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		notifier:     notifier,
		metrics:      m,
		timeProvider: &RealTimeProvider{},
		timeout:      timeout,
		logger:       logger,
	}
}

// Schedule регистрирует проход сверки в планировщике
func (r *Reconciler) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("Reconciler: pass failed: %v", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule reconciler %q: %w", spec, err)
	}
	return id, nil
}

// RunOnce выполняет один проход сверки
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	// 1. Занятые слоты без активного бронирования
	orphans, err := r.slotRepo.ListOccupiedWithoutActiveBooking(ctx)
	if err != nil {
		return report, fmt.Errorf("list orphaned slots: %w", err)
	}

	for _, s := range orphans {
		repaired, err := r.repairOrphanedSlot(ctx, s)
		switch {
		case errors.Is(err, errSkip):
			report.Skipped++
		case err != nil:
			return report, err
		default:
			report.OrphanedSlots++
			r.metrics.IncReconcilerRepairs(metrics.RepairOrphanedSlot)
			r.notifier.Publish(ctx, domain.SlotChangeEvent{
				LayoutID:   repaired.LayoutID,
				SlotID:     repaired.ID,
				Status:     domain.SlotAvailable,
				Version:    repaired.Version,
				OccurredAt: repaired.UpdatedAt,
			})
		}
	}

	// 2. Активные бронирования на свободных слотах
	strays, err := r.bookingRepo.ListActiveOnAvailableSlots(ctx)
	if err != nil {
		return report, fmt.Errorf("list stray bookings: %w", err)
	}

	for _, b := range strays {
		err := r.releaseStrayBooking(ctx, b)
		switch {
		case errors.Is(err, errSkip):
			report.Skipped++
		case err != nil:
			return report, err
		default:
			report.StrayBookings++
			r.metrics.IncReconcilerRepairs(metrics.RepairStrayBooking)
		}
	}

	if report.OrphanedSlots > 0 || report.StrayBookings > 0 {
		r.logger.Warn("Reconciler: repaired %d orphaned slots and %d stray bookings (skipped %d)",
			report.OrphanedSlots, report.StrayBookings, report.Skipped)
	}

	return report, nil
}

// repairOrphanedSlot освобождает слот, если его версия не изменилась с момента чтения
func (r *Reconciler) repairOrphanedSlot(ctx context.Context, s *domain.Slot) (*domain.Slot, error) {
	var repaired *domain.Slot

	err := r.txManager.Do(ctx, func(txCtx context.Context) error {
		updated, err := r.slotRepo.CompareAndSwapStatus(txCtx, domain.StatusCAS{
			SlotID:  s.ID,
			From:    domain.SlotOccupied,
			To:      domain.SlotAvailable,
			Version: s.Version,
		})
		if err != nil {
			if errors.Is(err, slotRepo.ErrStatusConflict) || errors.Is(err, slotRepo.ErrSlotNotFound) {
				return errSkip
			}
			return fmt.Errorf("compare-and-swap slot %d: %w", s.ID, err)
		}

		// Бронирование могло появиться между чтением и блокировкой строки
		if _, err := r.bookingRepo.GetActiveBySlotID(txCtx, s.ID); err == nil {
			return errSkip
		} else if !errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return fmt.Errorf("get active booking of slot %d: %w", s.ID, err)
		}

		repaired = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, errSkip) {
			r.logger.Info("Reconciler: slot id=%d changed concurrently, skipped", s.ID)
		}
		return nil, err
	}

	r.logger.Warn("Reconciler: released orphaned slot id=%d (%s), version=%d", repaired.ID, repaired.Label, repaired.Version)
	return repaired, nil
}

// releaseStrayBooking закрывает активное бронирование свободного слота
func (r *Reconciler) releaseStrayBooking(ctx context.Context, b *domain.Booking) error {
	err := r.txManager.Do(ctx, func(txCtx context.Context) error {
		s, err := r.slotRepo.GetByID(txCtx, b.SlotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return errSkip
			}
			return fmt.Errorf("get slot %d: %w", b.SlotID, err)
		}
		if s.IsOccupied() {
			return errSkip
		}

		if _, err := r.bookingRepo.MarkReleased(txCtx, b.ID, r.timeProvider.Now(), domain.SystemActorID); err != nil {
			if errors.Is(err, bookingRepo.ErrAlreadyReleased) {
				return errSkip
			}
			return fmt.Errorf("release booking %d: %w", b.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Warn("Reconciler: released stray booking id=%d on available slot id=%d", b.ID, b.SlotID)
	return nil
}
