package slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

func TestService_Reads(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Layouts(), store.Slots(), store.Bookings(), logger.NewDiscard())

	layout, err := store.Layouts().Create(ctx, &domain.Layout{OwnerID: 1, Name: "Lot", Location: "Main st"})
	require.NoError(t, err)
	created, err := store.Slots().CreateBatch(ctx, []*domain.Slot{
		{LayoutID: layout.ID, Label: "C-2", VehicleType: "Car"},
		{LayoutID: layout.ID, Label: "C-1", VehicleType: "Car"},
	})
	require.NoError(t, err)

	list, err := svc.GetLayoutSlots(ctx, layout.ID)
	require.NoError(t, err)
	require.Len(t, list.Slots, 2)
	assert.Equal(t, "C-1", list.Slots[0].Label)
	assert.Equal(t, "available", list.Slots[0].Status)

	_, err = svc.GetLayoutSlots(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrLayoutNotFound)

	_, err = svc.GetSlot(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrSlotNotFound)

	booking, err := store.Bookings().Create(ctx, &domain.Booking{
		SlotID:    created[0].ID,
		LayoutID:  layout.ID,
		Status:    domain.BookingApproved,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	history, err := svc.GetSlotBookings(ctx, created[0].ID)
	require.NoError(t, err)
	require.Len(t, history.Bookings, 1)
	assert.Equal(t, booking.ID, history.Bookings[0].ID)

	_, err = svc.GetSlotBookings(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrSlotNotFound)

	got, err := svc.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", got.Status)

	_, err = svc.GetBooking(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}
