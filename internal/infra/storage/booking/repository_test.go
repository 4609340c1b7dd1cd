package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

func TestStrayBookingsQuery(t *testing.T) {
	query, args, err := strayBookingsQuery().ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "SELECT b.id, b.slot_id, b.layout_id, "), query)
	assert.Contains(t, query, " b.created_at FROM bookings b JOIN parking_slots s ON s.id = b.slot_id ")
	assert.Contains(t, query, "WHERE b.released_at IS NULL AND s.status = $1 ORDER BY b.id ASC")
	assert.Equal(t, []interface{}{domain.SlotAvailable}, args)
}

func TestMarkReleasedQuery(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

	query, args, err := markReleasedQuery(11, at, 42).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE bookings SET status = $1, released_at = $2, released_by = $3, end_time = LEAST(end_time, $4) "+
			"WHERE id = $5 AND released_at IS NULL RETURNING "+columnList(),
		query)
	assert.Equal(t, []interface{}{domain.BookingReleased, at, int64(42), at, int64(11)}, args)
}
