package slots

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	layoutRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/layout"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
)

// Service сервис чтения слотов и бронирований. Не изменяет состояние.
type Service struct {
	layoutRepo  LayoutRepository
	slotRepo    SlotRepository
	bookingRepo BookingRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса слотов
func NewService(
	layoutRepo LayoutRepository,
	slotRepo SlotRepository,
	bookingRepo BookingRepository,
	logger Logger,
) *Service {
	return &Service{
		layoutRepo:  layoutRepo,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// GetLayoutSlots получает снимок слотов парковки, отсортированный по метке
func (s *Service) GetLayoutSlots(ctx context.Context, layoutID int64) (*models.SlotListResponse, error) {
	if _, err := s.layoutRepo.GetByID(ctx, layoutID); err != nil {
		if errors.Is(err, layoutRepo.ErrLayoutNotFound) {
			s.logger.Warn("GetLayoutSlots: layout id=%d not found", layoutID)
			return nil, ErrLayoutNotFound
		}
		s.logger.Error("GetLayoutSlots: failed to get layout id=%d: %v", layoutID, err)
		return nil, fmt.Errorf("%w: GetLayoutSlots - get layout: %v", ErrInternal, err)
	}

	slots, err := s.slotRepo.GetByLayoutID(ctx, layoutID)
	if err != nil {
		s.logger.Error("GetLayoutSlots: repository error for layout id=%d: %v", layoutID, err)
		return nil, fmt.Errorf("%w: GetLayoutSlots - repository error: %v", ErrInternal, err)
	}

	return &models.SlotListResponse{
		LayoutID: layoutID,
		Slots:    models.FromDomainSlots(slots),
	}, nil
}

// GetSlot получает слот по ID
func (s *Service) GetSlot(ctx context.Context, id int64) (*models.SlotResponse, error) {
	slot, err := s.slotRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("GetSlot: slot id=%d not found", id)
			return nil, ErrSlotNotFound
		}
		s.logger.Error("GetSlot: repository error for slot id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetSlot - repository error: %v", ErrInternal, err)
	}

	resp := models.FromDomainSlot(slot)
	return &resp, nil
}

// GetSlotBookings получает историю бронирований слота, новые первыми
func (s *Service) GetSlotBookings(ctx context.Context, slotID int64) (*models.BookingListResponse, error) {
	if _, err := s.GetSlot(ctx, slotID); err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListBySlotID(ctx, slotID)
	if err != nil {
		s.logger.Error("GetSlotBookings: repository error for slot id=%d: %v", slotID, err)
		return nil, fmt.Errorf("%w: GetSlotBookings - repository error: %v", ErrInternal, err)
	}

	resp := &models.BookingListResponse{
		SlotID:   slotID,
		Bookings: make([]models.BookingResponse, 0, len(bookings)),
	}
	for _, b := range bookings {
		resp.Bookings = append(resp.Bookings, models.FromDomainBooking(b))
	}

	return resp, nil
}

// GetBooking получает бронирование по ID
func (s *Service) GetBooking(ctx context.Context, id int64) (*models.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetBooking: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetBooking: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetBooking - repository error: %v", ErrInternal, err)
	}

	resp := models.FromDomainBooking(booking)
	return &resp, nil
}
