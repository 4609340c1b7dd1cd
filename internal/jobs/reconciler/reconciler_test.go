package reconciler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.SlotChangeEvent
}

func (n *recordingNotifier) Publish(_ context.Context, event domain.SlotChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	rec      *Reconciler
	slots    []*domain.Slot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	layout, err := store.Layouts().Create(ctx, &domain.Layout{OwnerID: 1, Name: "Lot A", Location: "Main st 1"})
	require.NoError(t, err)

	slots, err := store.Slots().CreateBatch(ctx, []*domain.Slot{
		{LayoutID: layout.ID, Label: "B-1", VehicleType: "Bike"},
		{LayoutID: layout.ID, Label: "B-2", VehicleType: "Bike"},
		{LayoutID: layout.ID, Label: "B-3", VehicleType: "Bike"},
	})
	require.NoError(t, err)

	n := &recordingNotifier{}
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	rec := NewReconciler(store.Slots(), store.Bookings(), store.TxManager(), n, m, time.Second, logger.NewDiscard())

	return &fixture{store: store, notifier: n, metrics: m, rec: rec, slots: slots}
}

func (f *fixture) occupy(t *testing.T, slot *domain.Slot) *domain.Slot {
	t.Helper()
	s, err := f.store.Slots().CompareAndSwapStatus(context.Background(), domain.StatusCAS{
		SlotID: slot.ID, From: domain.SlotAvailable, To: domain.SlotOccupied,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) book(t *testing.T, slot *domain.Slot) *domain.Booking {
	t.Helper()
	now := time.Now()
	b, err := f.store.Bookings().Create(context.Background(), &domain.Booking{
		SlotID:        slot.ID,
		LayoutID:      slot.LayoutID,
		CustomerName:  "Ivan",
		VehicleNumber: "A123BC",
		VehicleType:   slot.VehicleType,
		DurationHours: 1,
		StartTime:     now,
		EndTime:       now.Add(time.Hour),
		Status:        domain.BookingApproved,
		BookedBy:      7,
	})
	require.NoError(t, err)
	return b
}

func TestReconciler_RepairsInconsistencies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// B-1 занят без бронирования
	orphan := f.occupy(t, f.slots[0])
	// B-2 свободен, но с активным бронированием
	stray := f.book(t, f.slots[1])
	// B-3 согласован: занят и забронирован
	f.occupy(t, f.slots[2])
	healthy := f.book(t, f.slots[2])

	report, err := f.rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{OrphanedSlots: 1, StrayBookings: 1}, report)

	s, err := f.store.Slots().GetByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotAvailable, s.Status)
	assert.Equal(t, orphan.Version+1, s.Version)

	b, err := f.store.Bookings().GetByID(ctx, stray.ID)
	require.NoError(t, err)
	assert.False(t, b.IsActive())
	require.NotNil(t, b.ReleasedBy)
	assert.Equal(t, domain.SystemActorID, *b.ReleasedBy)

	b, err = f.store.Bookings().GetByID(ctx, healthy.ID)
	require.NoError(t, err)
	assert.True(t, b.IsActive())

	s, err = f.store.Slots().GetByID(ctx, f.slots[2].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotOccupied, s.Status)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, orphan.ID, f.notifier.events[0].SlotID)
	assert.Equal(t, domain.SlotAvailable, f.notifier.events[0].Status)
	assert.Equal(t, orphan.Version+1, f.notifier.events[0].Version)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReconcilerRepairs.WithLabelValues(metrics.RepairOrphanedSlot)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReconcilerRepairs.WithLabelValues(metrics.RepairStrayBooking)))

	// Повторный проход ничего не меняет
	report, err = f.rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}

type staleSlots struct {
	SlotRepository
	stale []*domain.Slot
}

func (s staleSlots) ListOccupiedWithoutActiveBooking(context.Context) ([]*domain.Slot, error) {
	return s.stale, nil
}

func TestReconciler_SkipsSlotChangedSinceRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Снимок устарел: после чтения слот был забронирован штатно
	orphan := f.occupy(t, f.slots[0])
	stale := *orphan
	stale.Version--

	rec := NewReconciler(staleSlots{SlotRepository: f.store.Slots(), stale: []*domain.Slot{&stale}},
		f.store.Bookings(), f.store.TxManager(), f.notifier, nil, time.Second, logger.NewDiscard())

	report, err := rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Skipped: 1}, report)

	s, err := f.store.Slots().GetByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotOccupied, s.Status)
	assert.Equal(t, orphan.Version, s.Version)
	assert.Empty(t, f.notifier.events)
}

func TestReconciler_SkipsSlotBookedAfterListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	occupied := f.occupy(t, f.slots[0])
	f.book(t, f.slots[0])

	// Список получен до появления бронирования
	rec := NewReconciler(staleSlots{SlotRepository: f.store.Slots(), stale: []*domain.Slot{occupied}},
		f.store.Bookings(), f.store.TxManager(), f.notifier, nil, time.Second, logger.NewDiscard())

	report, err := rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Skipped: 1}, report)

	s, err := f.store.Slots().GetByID(ctx, occupied.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotOccupied, s.Status)
	assert.Equal(t, occupied.Version, s.Version, "the version-guarded write must be rolled back")
}

func TestReconciler_Schedule(t *testing.T) {
	f := newFixture(t)
	c := NewCron(logger.NewDiscard())

	_, err := f.rec.Schedule(c, "@every 1m")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = f.rec.Schedule(c, "not a schedule")
	assert.Error(t, err)
}
