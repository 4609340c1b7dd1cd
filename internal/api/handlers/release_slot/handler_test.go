package release_slot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ParkingService/internal/service/notifier"
	"github.com/m04kA/SMC-ParkingService/internal/usecase/reservation"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type fixture struct {
	router *mux.Router
	coord  *reservation.Coordinator
	slot   *domain.Slot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	layout, err := store.Layouts().Create(ctx, &domain.Layout{OwnerID: 1, Name: "Lot A", Location: "Main st 1"})
	require.NoError(t, err)
	slots, err := store.Slots().CreateBatch(ctx, []*domain.Slot{{LayoutID: layout.ID, Label: "B-1", VehicleType: "Bike"}})
	require.NoError(t, err)

	n := notifier.NewNotifier(8, nil, nil, logger.NewDiscard())
	coord := reservation.NewCoordinator(store.Slots(), store.Bookings(), store.TxManager(), n, nil, nil, logger.NewDiscard())

	router := mux.NewRouter()
	router.Use(middleware.Auth(middleware.HeaderIdentifier(), logger.NewDiscard()))
	router.HandleFunc("/api/v1/slots/{slotId}/release", NewHandler(coord, logger.NewDiscard()).Handle).Methods(http.MethodPost)

	return &fixture{router: router, coord: coord, slot: slots[0]}
}

func (f *fixture) release(slotID string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/slots/"+slotID+"/release", nil)
	r.Header.Set(middleware.HeaderUserID, "9")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func TestHandler_ReleaseOccupiedSlot(t *testing.T) {
	f := newFixture(t)

	booked, err := f.coord.Book(context.Background(), &reservation.BookRequest{
		SlotID: f.slot.ID, CustomerName: "Ivan", VehicleNumber: "A123BC", DurationHours: 1, ActorID: 7,
	})
	require.NoError(t, err)

	rec := f.release(strconv.FormatInt(f.slot.ID, 10))
	require.Equal(t, http.StatusOK, rec.Code)

	var body ReleaseSlotResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "available", body.Status)
	assert.Equal(t, booked.Slot.Version+1, body.Version)
	require.NotNil(t, body.Booking)
	assert.Equal(t, booked.Booking.ID, body.Booking.ID)
	assert.Equal(t, "released", body.Booking.Status)
	require.NotNil(t, body.Booking.ReleasedBy)
	assert.Equal(t, int64(9), *body.Booking.ReleasedBy)
}

func TestHandler_ConcurrentReleaseOneWinner(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Book(context.Background(), &reservation.BookRequest{
		SlotID: f.slot.ID, CustomerName: "Ivan", VehicleNumber: "A123BC", DurationHours: 1, ActorID: 7,
	})
	require.NoError(t, err)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = f.release(strconv.FormatInt(f.slot.ID, 10)).Code
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestHandler_Errors(t *testing.T) {
	f := newFixture(t)

	rec := f.release(strconv.FormatInt(f.slot.ID, 10))
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, handlers.CodeSlotAlreadyFree, body.Code)

	rec = f.release("404")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.release("abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
