package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingstorage "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
)

// BookingRepository бронирования в памяти
type BookingRepository struct {
	s *Store
}

// Create создает бронирование. У слота может быть только одно активное бронирование.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	// Учитываются и незафиксированные бронирования, как частичный уникальный индекс в PostgreSQL
	for _, rec := range s.bookings {
		if rec.booking.SlotID == booking.SlotID && rec.booking.IsActive() {
			return nil, fmt.Errorf("%w: Create - slot %d", bookingstorage.ErrActiveBookingExists, booking.SlotID)
		}
	}

	s.lastBookingID++
	booking.ID = s.lastBookingID
	booking.CreatedAt = s.now()

	rec := &bookingRecord{booking: *booking, owner: j}
	id := booking.ID
	s.bookings[id] = rec

	track(j,
		func() { delete(s.bookings, id) },
		func() { rec.owner = nil },
	)

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.bookings[id]
	if !ok || !visible(rec.owner, j) {
		return nil, bookingstorage.ErrBookingNotFound
	}

	b := rec.booking
	return &b, nil
}

// GetActiveBySlotID получает активное бронирование слота
func (r *BookingRepository) GetActiveBySlotID(ctx context.Context, slotID int64) (*domain.Booking, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.bookings {
		if rec.booking.SlotID == slotID && rec.booking.IsActive() && visible(rec.owner, j) {
			b := rec.booking
			return &b, nil
		}
	}

	return nil, bookingstorage.ErrBookingNotFound
}

// ListBySlotID получает историю бронирований слота, новые первыми
func (r *BookingRepository) ListBySlotID(ctx context.Context, slotID int64) ([]*domain.Booking, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := make([]*domain.Booking, 0)
	for _, rec := range s.bookings {
		if rec.booking.SlotID == slotID && visible(rec.owner, j) {
			b := rec.booking
			bookings = append(bookings, &b)
		}
	}

	sortNewestFirst(bookings)
	return bookings, nil
}

// ListActiveOnAvailableSlots возвращает активные бронирования свободных слотов
func (r *BookingRepository) ListActiveOnAvailableSlots(ctx context.Context) ([]*domain.Booking, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := make([]*domain.Booking, 0)
	for _, rec := range s.bookings {
		if !rec.booking.IsActive() || !visible(rec.owner, j) {
			continue
		}
		slotRec, ok := s.slots[rec.booking.SlotID]
		if !ok {
			continue
		}
		if sl := slotRec.view(j); sl.Status == domain.SlotAvailable {
			b := rec.booking
			bookings = append(bookings, &b)
		}
	}

	sort.Slice(bookings, func(a, b int) bool { return bookings[a].ID < bookings[b].ID })
	return bookings, nil
}

// MarkReleased помечает бронирование освобожденным, если оно еще активно
func (r *BookingRepository) MarkReleased(ctx context.Context, id int64, at time.Time, by int64) (*domain.Booking, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.bookings[id]
	if !ok || !visible(rec.owner, j) {
		return nil, bookingstorage.ErrBookingNotFound
	}
	if !rec.booking.IsActive() {
		return nil, fmt.Errorf("%w: booking %d", bookingstorage.ErrAlreadyReleased, id)
	}

	prev := rec.booking

	rec.booking.Status = domain.BookingReleased
	rec.booking.ReleasedAt = ptr.Ptr(at)
	rec.booking.ReleasedBy = ptr.Ptr(by)
	if at.Before(rec.booking.EndTime) {
		rec.booking.EndTime = at
	}

	track(j, func() { rec.booking = prev }, nil)

	b := rec.booking
	return &b, nil
}

func sortNewestFirst(bookings []*domain.Booking) {
	sort.Slice(bookings, func(a, b int) bool {
		if !bookings[a].CreatedAt.Equal(bookings[b].CreatedAt) {
			return bookings[a].CreatedAt.After(bookings[b].CreatedAt)
		}
		return bookings[a].ID > bookings[b].ID
	})
}
