package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	layoutstorage "github.com/m04kA/SMC-ParkingService/internal/infra/storage/layout"
)

// LayoutRepository парковки в памяти
type LayoutRepository struct {
	s *Store
}

// Create создает парковку
func (r *LayoutRepository) Create(ctx context.Context, layout *domain.Layout) (*domain.Layout, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastLayoutID++
	layout.ID = s.lastLayoutID
	layout.CreatedAt = s.now()

	rec := &layoutRecord{layout: *layout, owner: j}
	id := layout.ID
	s.layouts[id] = rec

	track(j,
		func() { delete(s.layouts, id) },
		func() { rec.owner = nil },
	)

	return layout, nil
}

// CreateTier создает тип транспорта. Имя уникально в пределах парковки.
func (r *LayoutRepository) CreateTier(ctx context.Context, tier *domain.VehicleTypeTier) (*domain.VehicleTypeTier, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.tiers[tier.LayoutID] {
		if rec.tier.Name == tier.Name {
			return nil, fmt.Errorf("%w: CreateTier - %s", layoutstorage.ErrDuplicateTier, tier.Name)
		}
	}

	s.lastTierID++
	tier.ID = s.lastTierID
	tier.CreatedAt = s.now()

	rec := &tierRecord{tier: *tier, owner: j}
	layoutID := tier.LayoutID
	s.tiers[layoutID] = append(s.tiers[layoutID], rec)

	track(j,
		func() {
			recs := s.tiers[layoutID]
			for i, t := range recs {
				if t == rec {
					s.tiers[layoutID] = append(recs[:i], recs[i+1:]...)
					break
				}
			}
		},
		func() { rec.owner = nil },
	)

	return tier, nil
}

// GetByID получает парковку по ID
func (r *LayoutRepository) GetByID(ctx context.Context, id int64) (*domain.Layout, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.layouts[id]
	if !ok || !visible(rec.owner, j) {
		return nil, layoutstorage.ErrLayoutNotFound
	}

	l := rec.layout
	return &l, nil
}

// ListByOwner получает парковки владельца, новые первыми
func (r *LayoutRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Layout, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	layouts := make([]*domain.Layout, 0)
	for _, rec := range s.layouts {
		if rec.layout.OwnerID == ownerID && visible(rec.owner, j) {
			l := rec.layout
			layouts = append(layouts, &l)
		}
	}

	sort.Slice(layouts, func(a, b int) bool {
		if !layouts[a].CreatedAt.Equal(layouts[b].CreatedAt) {
			return layouts[a].CreatedAt.After(layouts[b].CreatedAt)
		}
		return layouts[a].ID > layouts[b].ID
	})

	return layouts, nil
}

// ListTiers получает типы транспорта парковки в порядке создания
func (r *LayoutRepository) ListTiers(ctx context.Context, layoutID int64) ([]*domain.VehicleTypeTier, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	tiers := make([]*domain.VehicleTypeTier, 0, len(s.tiers[layoutID]))
	for _, rec := range s.tiers[layoutID] {
		if visible(rec.owner, j) {
			t := rec.tier
			tiers = append(tiers, &t)
		}
	}

	return tiers, nil
}
