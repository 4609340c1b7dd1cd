package syncclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ParkingService/internal/service/notifier"
	"github.com/m04kA/SMC-ParkingService/internal/usecase/reservation"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

func fastConfig() Config {
	return Config{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func wait(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
	}
}

func TestClient_FollowsReservations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore()
	layout, err := store.Layouts().Create(ctx, &domain.Layout{OwnerID: 1, Name: "Lot A", Location: "Main st 1"})
	require.NoError(t, err)
	slots, err := store.Slots().CreateBatch(ctx, []*domain.Slot{
		{LayoutID: layout.ID, Label: "B-1", VehicleType: "Bike"},
		{LayoutID: layout.ID, Label: "B-2", VehicleType: "Bike"},
	})
	require.NoError(t, err)

	n := notifier.NewNotifier(16, nil, nil, logger.NewDiscard())
	coord := reservation.NewCoordinator(store.Slots(), store.Bookings(), store.TxManager(), n, nil, nil, logger.NewDiscard())

	synced := make(chan struct{}, 1)
	applied := make(chan struct{}, 4)
	client := NewClient(
		NewLocalSource(store.Layouts(), store.Slots(), n),
		layout.ID,
		fastConfig(),
		logger.NewDiscard(),
		OnSnapshot(func(*Mirror) { synced <- struct{}{} }),
		OnEvent(func(*Mirror, domain.SlotChangeEvent) { applied <- struct{}{} }),
	)

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()
	wait(t, synced, "snapshot")

	booked, err := coord.Book(ctx, &reservation.BookRequest{
		SlotID:        slots[0].ID,
		CustomerName:  "Ivan",
		VehicleNumber: "A123BC",
		DurationHours: 1,
		ActorID:       1,
	})
	require.NoError(t, err)
	wait(t, applied, "occupied event")

	s, ok := client.Mirror().Slot(slots[0].ID)
	require.True(t, ok)
	assert.Equal(t, domain.SlotOccupied, s.Status)
	assert.Equal(t, booked.Slot.Version, s.Version)

	bookingID, ok := client.Mirror().ActiveBooking(slots[0].ID)
	require.True(t, ok)
	assert.Equal(t, booked.Booking.ID, bookingID)

	_, err = coord.Release(ctx, &reservation.ReleaseRequest{SlotID: slots[0].ID, ActorID: 1})
	require.NoError(t, err)
	wait(t, applied, "available event")

	s, _ = client.Mirror().Slot(slots[0].ID)
	assert.Equal(t, domain.SlotAvailable, s.Status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}

func TestClient_UnknownLayout(t *testing.T) {
	store := memory.NewStore()
	n := notifier.NewNotifier(4, nil, nil, logger.NewDiscard())
	client := NewClient(NewLocalSource(store.Layouts(), store.Slots(), n), 404, fastConfig(), logger.NewDiscard())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := client.Run(ctx)
	assert.ErrorIs(t, err, ErrLayoutNotFound)
	assert.Equal(t, 0, n.Subscribers(), "subscription must be closed with the session")
}

type fakeStream struct {
	events chan domain.SlotChangeEvent
	once   sync.Once
	mu     sync.Mutex
	err    error
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan domain.SlotChangeEvent, 8)}
}

func (s *fakeStream) Events() <-chan domain.SlotChangeEvent { return s.events }

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStream) Close() { s.end(ErrStreamClosed) }

func (s *fakeStream) end(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.events)
	})
}

type fakeSource struct {
	snapshotFn func(call int) ([]*domain.Slot, error)
	snapshots  atomic.Int32
	streams    chan *fakeStream
}

func (f *fakeSource) Snapshot(ctx context.Context, layoutID int64) ([]*domain.Slot, error) {
	call := int(f.snapshots.Add(1))
	return f.snapshotFn(call)
}

func (f *fakeSource) Subscribe(ctx context.Context, layoutID int64) (Stream, error) {
	s := newFakeStream()
	f.streams <- s
	return s, nil
}

func TestClient_ResnapshotsAfterStreamLoss(t *testing.T) {
	src := &fakeSource{
		snapshotFn: func(call int) ([]*domain.Slot, error) {
			status := domain.SlotAvailable
			if call > 1 {
				status = domain.SlotOccupied
			}
			return []*domain.Slot{{ID: 1, LayoutID: 7, Label: "B-1", Status: status, Version: int64(call)}}, nil
		},
		streams: make(chan *fakeStream, 4),
	}

	synced := make(chan struct{}, 4)
	client := NewClient(src, 7, fastConfig(), logger.NewDiscard(), OnSnapshot(func(*Mirror) { synced <- struct{}{} }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	first := <-src.streams
	wait(t, synced, "first snapshot")

	first.end(ErrResync)

	<-src.streams
	wait(t, synced, "second snapshot")

	s, ok := client.Mirror().Slot(1)
	require.True(t, ok)
	assert.Equal(t, domain.SlotOccupied, s.Status)
	assert.Equal(t, int64(2), s.Version)
}

func TestClient_RetriesFailedSnapshots(t *testing.T) {
	src := &fakeSource{
		snapshotFn: func(call int) ([]*domain.Slot, error) {
			if call < 3 {
				return nil, errors.New("connection refused")
			}
			return []*domain.Slot{{ID: 1, LayoutID: 7, Label: "B-1", Status: domain.SlotAvailable, Version: 1}}, nil
		},
		streams: make(chan *fakeStream, 8),
	}

	synced := make(chan struct{}, 1)
	client := NewClient(src, 7, fastConfig(), logger.NewDiscard(), OnSnapshot(func(*Mirror) { synced <- struct{}{} }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	wait(t, synced, "snapshot after retries")
	assert.Equal(t, int32(3), src.snapshots.Load())
	assert.True(t, client.Mirror().Synced())
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	failure := errors.New("connection refused")
	src := &fakeSource{
		snapshotFn: func(int) ([]*domain.Slot, error) { return nil, failure },
		streams:    make(chan *fakeStream, 8),
	}

	cfg := fastConfig()
	cfg.MaxAttempts = 2
	client := NewClient(src, 7, cfg, logger.NewDiscard())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := client.Run(ctx)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, int32(3), src.snapshots.Load())
}
