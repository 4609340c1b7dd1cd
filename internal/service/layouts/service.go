package layouts

import (
	"context"
	"errors"
	"fmt"

	layoutRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/layout"
	"github.com/m04kA/SMC-ParkingService/internal/service/layouts/models"
)

// Service сервис чтения парковок
type Service struct {
	layoutRepo LayoutRepository
	logger     Logger
}

// NewService создает новый экземпляр сервиса парковок
func NewService(layoutRepo LayoutRepository, logger Logger) *Service {
	return &Service{
		layoutRepo: layoutRepo,
		logger:     logger,
	}
}

// GetByID получает парковку с типами транспорта
func (s *Service) GetByID(ctx context.Context, id int64) (*models.LayoutResponse, error) {
	layout, err := s.layoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, layoutRepo.ErrLayoutNotFound) {
			s.logger.Warn("GetByID: layout id=%d not found", id)
			return nil, ErrLayoutNotFound
		}
		s.logger.Error("GetByID: repository error for layout id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	tiers, err := s.layoutRepo.ListTiers(ctx, id)
	if err != nil {
		s.logger.Error("GetByID: failed to list vehicle types of layout id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - list tiers: %v", ErrInternal, err)
	}

	resp := models.FromDomainLayout(layout, tiers)
	return &resp, nil
}

// ListByOwner получает парковки владельца, новые первыми
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) (*models.LayoutListResponse, error) {
	layouts, err := s.layoutRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("ListByOwner: repository error for owner=%d: %v", ownerID, err)
		return nil, fmt.Errorf("%w: ListByOwner - repository error: %v", ErrInternal, err)
	}

	resp := &models.LayoutListResponse{Layouts: make([]models.LayoutResponse, 0, len(layouts))}
	for _, l := range layouts {
		resp.Layouts = append(resp.Layouts, models.FromDomainLayout(l, nil))
	}

	s.logger.Info("ListByOwner: found %d layouts for owner=%d", len(resp.Layouts), ownerID)
	return resp, nil
}

// Exists проверяет существование парковки
func (s *Service) Exists(ctx context.Context, id int64) error {
	if _, err := s.layoutRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, layoutRepo.ErrLayoutNotFound) {
			return ErrLayoutNotFound
		}
		return fmt.Errorf("%w: Exists - repository error: %v", ErrInternal, err)
	}
	return nil
}
