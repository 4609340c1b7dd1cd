package create_layout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type failingSlotRepo struct{}

func (failingSlotRepo) CreateBatch(context.Context, []*domain.Slot) ([]*domain.Slot, error) {
	return nil, errors.New("disk full")
}

func newUseCase(store *memory.Store) *UseCase {
	return NewUseCase(store.Layouts(), store.Slots(), store.TxManager(), logger.NewDiscard())
}

func TestExecute_GeneratesSlotsPerEnabledTier(t *testing.T) {
	store := memory.NewStore()
	uc := newUseCase(store)

	resp, err := uc.Execute(context.Background(), &Request{
		OwnerID:  1,
		Name:     "Lot A",
		Location: "Main st 1",
		Tiers: []domain.TierSpec{
			{Name: "Bike", PricePerHour: 10, Count: 3},
			{Name: "Car", PricePerHour: 40, Count: 2, Prefix: "C", StartNumber: 5},
			{Name: "Truck", PricePerHour: 0, Count: 4},
			{Name: "Van", PricePerHour: 20, Count: 0},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Tiers, 2)
	assert.Equal(t, "B", resp.Tiers[0].Prefix)
	assert.Equal(t, 1, resp.Tiers[0].StartNumber)
	assert.Equal(t, "C", resp.Tiers[1].Prefix)
	assert.Equal(t, 5, resp.Tiers[1].StartNumber)

	labels := make([]string, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		labels = append(labels, s.Label)
		assert.Equal(t, domain.SlotAvailable, s.Status)
		assert.Equal(t, resp.Layout.ID, s.LayoutID)
	}
	assert.Equal(t, []string{"B-1", "B-2", "B-3", "C-5", "C-6"}, labels)

	stored, err := store.Slots().GetByLayoutID(context.Background(), resp.Layout.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestExecute_Validation(t *testing.T) {
	lat := 55.7

	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{
			name: "no enabled tiers",
			req: &Request{OwnerID: 1, Name: "Lot", Location: "Main st", Tiers: []domain.TierSpec{
				{Name: "Car", PricePerHour: 0, Count: 5},
			}},
			want: ErrNoEnabledTiers,
		},
		{
			name: "empty name",
			req:  &Request{OwnerID: 1, Name: "  ", Location: "Main st"},
			want: ErrInvalidInput,
		},
		{
			name: "latitude without longitude",
			req: &Request{OwnerID: 1, Name: "Lot", Location: "Main st", Latitude: &lat, Tiers: []domain.TierSpec{
				{Name: "Car", PricePerHour: 10, Count: 1},
			}},
			want: ErrInvalidInput,
		},
		{
			name: "overlapping label ranges",
			req: &Request{OwnerID: 1, Name: "Lot", Location: "Main st", Tiers: []domain.TierSpec{
				{Name: "Car", PricePerHour: 10, Count: 3},
				{Name: "Coach", PricePerHour: 50, Count: 2, StartNumber: 3},
			}},
			want: ErrDuplicateLabel,
		},
		{
			name: "missing owner",
			req: &Request{Name: "Lot", Location: "Main st", Tiers: []domain.TierSpec{
				{Name: "Car", PricePerHour: 10, Count: 1},
			}},
			want: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			_, err := newUseCase(store).Execute(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrValidation)

			layouts, err := store.Layouts().ListByOwner(context.Background(), 1)
			require.NoError(t, err)
			assert.Empty(t, layouts)
		})
	}
}

func TestExecute_FailureLeavesNothingBehind(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store.Layouts(), failingSlotRepo{}, store.TxManager(), logger.NewDiscard())

	_, err := uc.Execute(context.Background(), &Request{
		OwnerID:  1,
		Name:     "Lot",
		Location: "Main st",
		Tiers:    []domain.TierSpec{{Name: "Car", PricePerHour: 10, Count: 2}},
	})
	require.ErrorIs(t, err, ErrInternal)

	layouts, err := store.Layouts().ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, layouts)
}
