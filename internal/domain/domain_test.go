package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlotLabels(t *testing.T) {
	// Генерация детерминирована: одинаковые входные данные дают одинаковый результат
	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"B-1", "B-2", "B-3"}, GenerateSlotLabels("B", 1, 3))
	}

	assert.Equal(t, []string{"C-10", "C-11"}, GenerateSlotLabels("C", 10, 2))
	assert.Empty(t, GenerateSlotLabels("T", 1, 0))
	assert.Empty(t, GenerateSlotLabels("T", 1, -5))
}

func TestTierSpec_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		spec       TierSpec
		wantPrefix string
		wantStart  int
		wantOn     bool
	}{
		{
			name:       "explicit prefix and start",
			spec:       TierSpec{Name: "4-Wheeler", PricePerHour: 40, Count: 5, Prefix: "C", StartNumber: 10},
			wantPrefix: "C",
			wantStart:  10,
			wantOn:     true,
		},
		{
			name:       "prefix from name",
			spec:       TierSpec{Name: "hmv", PricePerHour: 100, Count: 2},
			wantPrefix: "H",
			wantStart:  1,
			wantOn:     true,
		},
		{
			name:       "missing price",
			spec:       TierSpec{Name: "2-Wheeler", Count: 3, Prefix: "B"},
			wantPrefix: "B",
			wantStart:  1,
			wantOn:     false,
		},
		{
			name:       "missing count",
			spec:       TierSpec{Name: "2-Wheeler", PricePerHour: 10, Prefix: "B", StartNumber: -1},
			wantPrefix: "B",
			wantStart:  1,
			wantOn:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantPrefix, tt.spec.EffectivePrefix())
			assert.Equal(t, tt.wantStart, tt.spec.EffectiveStartNumber())
			assert.Equal(t, tt.wantOn, tt.spec.IsEnabled())
		})
	}
}

func TestBooking_Overlaps(t *testing.T) {
	base := time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)
	a := &Booking{StartTime: base, EndTime: base.Add(2 * time.Hour)}
	b := &Booking{StartTime: base.Add(time.Hour), EndTime: base.Add(3 * time.Hour)}
	c := &Booking{StartTime: base.Add(2 * time.Hour), EndTime: base.Add(4 * time.Hour)}

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
	// Граничный случай: конец одного совпадает с началом другого
	assert.False(t, a.Overlaps(c))
}

func TestBooking_IsActive(t *testing.T) {
	b := &Booking{}
	assert.True(t, b.IsActive())

	now := time.Now()
	b.ReleasedAt = &now
	assert.False(t, b.IsActive())
}

func TestSlotChangeEvent_IsNewerThan(t *testing.T) {
	e := SlotChangeEvent{Version: 3}
	assert.True(t, e.IsNewerThan(2))
	assert.False(t, e.IsNewerThan(3))
	assert.False(t, e.IsNewerThan(4))
}

func TestSlotStatus_IsValid(t *testing.T) {
	assert.True(t, SlotAvailable.IsValid())
	assert.True(t, SlotOccupied.IsValid())
	assert.False(t, SlotStatus("reserved").IsValid())
}
