package syncclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

func snapshot() []*domain.Slot {
	return []*domain.Slot{
		{ID: 2, LayoutID: 7, Label: "B-2", VehicleType: "Bike", Status: domain.SlotAvailable, Version: 1},
		{ID: 1, LayoutID: 7, Label: "B-1", VehicleType: "Bike", Status: domain.SlotAvailable, Version: 3},
		{ID: 9, LayoutID: 8, Label: "C-1", VehicleType: "Car", Status: domain.SlotAvailable, Version: 1},
	}
}

func TestMirror_ReplaceSnapshot(t *testing.T) {
	m := NewMirror(7)
	assert.False(t, m.Synced())

	m.ReplaceSnapshot(snapshot())

	require.True(t, m.Synced())
	slots := m.Slots()
	require.Len(t, slots, 2)
	assert.Equal(t, "B-1", slots[0].Label)
	assert.Equal(t, "B-2", slots[1].Label)

	_, ok := m.Slot(9)
	assert.False(t, ok, "slot of another layout must be ignored")

	m.ReplaceSnapshot([]*domain.Slot{{ID: 5, LayoutID: 7, Label: "A-1", Version: 1}})
	_, ok = m.Slot(1)
	assert.False(t, ok, "snapshot replaces the mirror wholesale")
}

func TestMirror_Apply(t *testing.T) {
	bookingID := int64(42)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   domain.SlotChangeEvent
		applied bool
	}{
		{
			name:    "newer version applies",
			event:   domain.SlotChangeEvent{LayoutID: 7, SlotID: 1, Status: domain.SlotOccupied, BookingID: &bookingID, Version: 4, OccurredAt: at},
			applied: true,
		},
		{
			name:  "same version ignored",
			event: domain.SlotChangeEvent{LayoutID: 7, SlotID: 1, Status: domain.SlotOccupied, Version: 3},
		},
		{
			name:  "older version ignored",
			event: domain.SlotChangeEvent{LayoutID: 7, SlotID: 1, Status: domain.SlotOccupied, Version: 2},
		},
		{
			name:  "unknown slot ignored",
			event: domain.SlotChangeEvent{LayoutID: 7, SlotID: 100, Status: domain.SlotOccupied, Version: 10},
		},
		{
			name:  "other layout ignored",
			event: domain.SlotChangeEvent{LayoutID: 8, SlotID: 9, Status: domain.SlotOccupied, Version: 10},
		},
		{
			name:  "invalid status ignored",
			event: domain.SlotChangeEvent{LayoutID: 7, SlotID: 1, Status: "broken", Version: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMirror(7)
			m.ReplaceSnapshot(snapshot())

			assert.Equal(t, tt.applied, m.Apply(tt.event))

			s, ok := m.Slot(1)
			require.True(t, ok)
			if tt.applied {
				assert.Equal(t, tt.event.Status, s.Status)
				assert.Equal(t, tt.event.Version, s.Version)
				assert.Equal(t, "B-1", s.Label, "only status and linkage change")
			} else {
				assert.Equal(t, domain.SlotAvailable, s.Status)
				assert.Equal(t, int64(3), s.Version)
			}
		})
	}
}

func TestMirror_BookingLinkage(t *testing.T) {
	m := NewMirror(7)
	m.ReplaceSnapshot(snapshot())

	bookingID := int64(42)
	require.True(t, m.Apply(domain.SlotChangeEvent{LayoutID: 7, SlotID: 1, Status: domain.SlotOccupied, BookingID: &bookingID, Version: 4}))

	id, ok := m.ActiveBooking(1)
	require.True(t, ok)
	assert.Equal(t, bookingID, id)

	available, occupied := m.Counts()
	assert.Equal(t, 1, available)
	assert.Equal(t, 1, occupied)

	require.True(t, m.Apply(domain.SlotChangeEvent{LayoutID: 7, SlotID: 1, Status: domain.SlotAvailable, Version: 5}))
	_, ok = m.ActiveBooking(1)
	assert.False(t, ok)
}

func TestMirror_ResnapshotKeepsLinkageOfUnchangedSlots(t *testing.T) {
	m := NewMirror(7)
	m.ReplaceSnapshot(snapshot())

	first, second := int64(42), int64(43)
	require.True(t, m.Apply(domain.SlotChangeEvent{LayoutID: 7, SlotID: 1, Status: domain.SlotOccupied, BookingID: &first, Version: 4}))
	require.True(t, m.Apply(domain.SlotChangeEvent{LayoutID: 7, SlotID: 2, Status: domain.SlotOccupied, BookingID: &second, Version: 2}))

	// слот 1 не менялся; слот 2 освобожден и занят заново, пока потока не было
	m.ReplaceSnapshot([]*domain.Slot{
		{ID: 1, LayoutID: 7, Label: "B-1", Status: domain.SlotOccupied, Version: 4},
		{ID: 2, LayoutID: 7, Label: "B-2", Status: domain.SlotOccupied, Version: 4},
	})

	id, ok := m.ActiveBooking(1)
	require.True(t, ok)
	assert.Equal(t, first, id)

	_, ok = m.ActiveBooking(2)
	assert.False(t, ok, "linkage of a slot that changed in the gap is unknown")

	m.ReplaceSnapshot([]*domain.Slot{
		{ID: 1, LayoutID: 7, Label: "B-1", Status: domain.SlotAvailable, Version: 5},
	})
	_, ok = m.ActiveBooking(1)
	assert.False(t, ok)
}
