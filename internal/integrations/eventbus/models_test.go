package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

func TestNewBookingMessage(t *testing.T) {
	releasedBy := int64(8)
	releasedAt := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	msg := newBookingMessage(RoutingKeyBookingReleased, &domain.Booking{
		ID:            5,
		SlotID:        2,
		LayoutID:      1,
		CustomerName:  "Ivan",
		VehicleNumber: "A123BC",
		VehicleType:   "Car",
		DurationHours: 2,
		Status:        domain.BookingReleased,
		BookedBy:      7,
		ReleasedBy:    &releasedBy,
		ReleasedAt:    &releasedAt,
	})

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "booking.released", decoded["event"])
	assert.Equal(t, float64(5), decoded["bookingId"])
	assert.Equal(t, "released", decoded["status"])
	assert.Equal(t, float64(8), decoded["releasedBy"])
}

func TestPublisher_ClosedRejectsPublish(t *testing.T) {
	p := &Publisher{closed: true, logger: logger.NewDiscard()}

	err := p.PublishBookingCreated(context.Background(), &domain.Booking{ID: 1})
	assert.ErrorIs(t, err, ErrClosed)

	p.Close()
}
