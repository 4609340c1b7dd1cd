package create_layout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	layoutRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/layout"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
)

// UseCase use case создания парковки с типами транспорта и слотами
type UseCase struct {
	layoutRepo LayoutRepository
	slotRepo   SlotRepository
	txManager  TransactionManager
	logger     Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	layoutRepo LayoutRepository,
	slotRepo SlotRepository,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		layoutRepo: layoutRepo,
		slotRepo:   slotRepo,
		txManager:  txManager,
		logger:     logger,
	}
}

// Execute создает парковку, её типы транспорта и слоты в одной транзакции.
// При любой ошибке ничего не сохраняется.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateLayout: owner=%d, name=%q, tiers=%d", req.OwnerID, req.Name, len(req.Tiers))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateLayout: validation failed: %v", err)
		return nil, err
	}

	// 2. Отбор типов транспорта и генерация меток
	planned, err := planTiers(req.Tiers)
	if err != nil {
		uc.logger.Warn("CreateLayout: tier validation failed: %v", err)
		return nil, err
	}

	result := &Response{}

	// 3. Сохраняем парковку, типы и слоты атомарно
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		layout, err := uc.layoutRepo.Create(txCtx, &domain.Layout{
			OwnerID:   req.OwnerID,
			Name:      strings.TrimSpace(req.Name),
			Location:  strings.TrimSpace(req.Location),
			City:      req.City,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to create layout: %v", ErrInternal, err)
		}
		result.Layout = layout

		slots := make([]*domain.Slot, 0)
		for _, p := range planned {
			tier, err := uc.layoutRepo.CreateTier(txCtx, &domain.VehicleTypeTier{
				LayoutID:     layout.ID,
				Name:         p.spec.Name,
				PricePerHour: p.spec.PricePerHour,
				Prefix:       p.prefix,
				StartNumber:  p.start,
				SlotCount:    p.spec.Count,
			})
			if err != nil {
				if errors.Is(err, layoutRepo.ErrDuplicateTier) {
					return fmt.Errorf("%w: %v", ErrInvalidInput, err)
				}
				return fmt.Errorf("%w: failed to create vehicle type %q: %v", ErrInternal, p.spec.Name, err)
			}
			result.Tiers = append(result.Tiers, tier)

			for _, label := range p.labels {
				slots = append(slots, &domain.Slot{
					LayoutID:    layout.ID,
					Label:       label,
					VehicleType: tier.Name,
				})
			}
		}

		created, err := uc.slotRepo.CreateBatch(txCtx, slots)
		if err != nil {
			if errors.Is(err, slotRepo.ErrDuplicateLabel) {
				return fmt.Errorf("%w: %v", ErrDuplicateLabel, err)
			}
			return fmt.Errorf("%w: failed to create slots: %v", ErrInternal, err)
		}
		result.Slots = created

		return nil
	})

	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			uc.logger.Warn("CreateLayout: rejected: %v", err)
			return nil, err
		}
		uc.logger.Error("CreateLayout: failed: %v", err)
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateLayout: created layout id=%d with %d vehicle types and %d slots",
		result.Layout.ID, len(result.Tiers), len(result.Slots))

	return result, nil
}
