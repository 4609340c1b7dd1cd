package notifier

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
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

func event(layoutID, slotID, version int64, status domain.SlotStatus) domain.SlotChangeEvent {
	return domain.SlotChangeEvent{LayoutID: layoutID, SlotID: slotID, Status: status, Version: version}
}

func receive(t *testing.T, sub *Subscription) domain.SlotChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly: %v", sub.Err())
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return domain.SlotChangeEvent{}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestNotifier_DeliversToLayoutSubscribersOnly(t *testing.T) {
	t.Parallel()

	n := NewNotifier(8, nil, nil, logger.NewDiscard())
	ctx := context.Background()

	a1, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)
	a2, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)
	b, err := n.Subscribe(ctx, 2)
	require.NoError(t, err)

	n.Publish(ctx, event(1, 10, 2, domain.SlotOccupied))

	ev := receive(t, a1)
	assert.Equal(t, int64(10), ev.SlotID)
	assert.NotEmpty(t, ev.ID, "event id is assigned on publish")
	assert.Equal(t, ev.ID, receive(t, a2).ID)
	assertNoEvent(t, b)
}

func TestNotifier_DropsStaleVersions(t *testing.T) {
	t.Parallel()

	n := NewNotifier(8, nil, nil, logger.NewDiscard())
	ctx := context.Background()

	sub, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)

	n.Publish(ctx, event(1, 10, 3, domain.SlotAvailable))
	n.Publish(ctx, event(1, 10, 2, domain.SlotOccupied))
	n.Publish(ctx, event(1, 10, 3, domain.SlotAvailable))
	n.Publish(ctx, event(1, 11, 2, domain.SlotOccupied))

	assert.Equal(t, int64(3), receive(t, sub).Version)
	second := receive(t, sub)
	assert.Equal(t, int64(11), second.SlotID)
	assertNoEvent(t, sub)
}

func TestNotifier_LaggingSubscriberIsDisconnected(t *testing.T) {
	t.Parallel()

	n := NewNotifier(2, nil, nil, logger.NewDiscard())
	ctx := context.Background()

	slow, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)
	fast, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)

	for v := int64(2); v <= 4; v++ {
		n.Publish(ctx, event(1, 10, v, domain.SlotOccupied))
		receive(t, fast)
	}

	select {
	case <-slow.Done():
	case <-time.After(time.Second):
		t.Fatal("slow subscriber was not disconnected")
	}
	assert.ErrorIs(t, slow.Err(), ErrSubscriberLagged)
	assert.NoError(t, fast.Err())
	assert.Equal(t, 1, n.Subscribers())
}

func TestNotifier_ContextCancelClosesSubscription(t *testing.T) {
	t.Parallel()

	n := NewNotifier(4, nil, nil, logger.NewDiscard())
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not closed on context cancel")
	}
	assert.ErrorIs(t, sub.Err(), ErrUnsubscribed)
	assert.Equal(t, 0, n.Subscribers())

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestNotifier_Close(t *testing.T) {
	t.Parallel()

	n := NewNotifier(4, nil, nil, logger.NewDiscard())
	sub, err := n.Subscribe(context.Background(), 1)
	require.NoError(t, err)

	n.Close()
	n.Close()

	assert.ErrorIs(t, sub.Err(), ErrClosed)
	_, err = n.Subscribe(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)
}

type fakeTransport struct {
	mu        sync.Mutex
	published []domain.SlotChangeEvent
	fail      error
	deliver   chan func(domain.SlotChangeEvent)
}

func (f *fakeTransport) Publish(_ context.Context, ev domain.SlotChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.published = append(f.published, ev)
	return nil
}

func (f *fakeTransport) Run(ctx context.Context, ready func(), deliver func(domain.SlotChangeEvent)) error {
	ready()
	f.deliver <- deliver
	<-ctx.Done()
	return nil
}

func TestNotifier_TransportRoundTrip(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{deliver: make(chan func(domain.SlotChangeEvent), 1)}
	n := NewNotifier(4, tr, nil, logger.NewDiscard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx) }()
	deliver := <-tr.deliver

	sub, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)

	n.Publish(ctx, event(1, 10, 2, domain.SlotOccupied))
	assertNoEvent(t, sub)

	tr.mu.Lock()
	require.Len(t, tr.published, 1)
	published := tr.published[0]
	tr.mu.Unlock()

	deliver(published)
	assert.Equal(t, published.ID, receive(t, sub).ID)
}

func TestNotifier_TransportFailureFallsBackToLocal(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{fail: errors.New("redis down")}
	n := NewNotifier(4, tr, nil, logger.NewDiscard())

	sub, err := n.Subscribe(context.Background(), 1)
	require.NoError(t, err)

	n.Publish(context.Background(), event(1, 10, 2, domain.SlotOccupied))
	assert.Equal(t, int64(10), receive(t, sub).SlotID)
}

// brokenTransport публикует успешно, но прием событий сразу обрывается
type brokenTransport struct {
	runs atomic.Int32
}

func (f *brokenTransport) Publish(context.Context, domain.SlotChangeEvent) error { return nil }

func (f *brokenTransport) Run(context.Context, func(), func(domain.SlotChangeEvent)) error {
	f.runs.Add(1)
	return errors.New("pubsub: channel closed")
}

func TestNotifier_DeliversLocallyWhileTransportCannotReceive(t *testing.T) {
	t.Parallel()

	tr := &brokenTransport{}
	n := NewNotifier(4, tr, nil, logger.NewDiscard())
	n.retryBase, n.retryMax = time.Millisecond, 5*time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx) }()

	sub, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)

	n.Publish(ctx, event(1, 10, 2, domain.SlotOccupied))
	assert.Equal(t, int64(10), receive(t, sub).SlotID)
	assert.NoError(t, sub.Err())

	require.Eventually(t, func() bool { return tr.runs.Load() >= 3 }, time.Second, time.Millisecond,
		"receive loop must be restarted")
}

// session одна сессия приема сессионного транспорта
type session struct {
	deliver func(domain.SlotChangeEvent)
	stop    chan error
}

// sessionTransport отдает тесту каждую сессию приема и завершает её по команде
type sessionTransport struct {
	sessions chan *session
}

func (f *sessionTransport) Publish(context.Context, domain.SlotChangeEvent) error { return nil }

func (f *sessionTransport) Run(ctx context.Context, ready func(), deliver func(domain.SlotChangeEvent)) error {
	s := &session{deliver: deliver, stop: make(chan error, 1)}
	ready()
	f.sessions <- s

	select {
	case <-ctx.Done():
		return nil
	case err := <-s.stop:
		return err
	}
}

func TestNotifier_ReceiveLossForcesResync(t *testing.T) {
	t.Parallel()

	tr := &sessionTransport{sessions: make(chan *session, 4)}
	n := NewNotifier(4, tr, nil, logger.NewDiscard())
	n.retryBase, n.retryMax = time.Millisecond, 5*time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx) }()

	first := <-tr.sessions
	sub, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)

	// через транспорт: локально не доставляется, пока прием работает
	n.Publish(ctx, event(1, 10, 2, domain.SlotOccupied))
	assertNoEvent(t, sub)
	first.deliver(event(1, 10, 2, domain.SlotOccupied))
	assert.Equal(t, int64(2), receive(t, sub).Version)

	first.stop <- errors.New("connection reset by peer")

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscriber was not disconnected after receive loss")
	}
	assert.ErrorIs(t, sub.Err(), ErrSubscriberLagged)
	assert.Equal(t, 0, n.Subscribers())

	second := <-tr.sessions
	resubscribed, err := n.Subscribe(ctx, 1)
	require.NoError(t, err)

	second.deliver(event(1, 10, 3, domain.SlotAvailable))
	assert.Equal(t, int64(3), receive(t, resubscribed).Version)
}

func TestNotifier_ResubscribeDisconnectsEarlierSubscribers(t *testing.T) {
	t.Parallel()

	tr := &sessionTransport{sessions: make(chan *session, 4)}
	n := NewNotifier(4, tr, nil, logger.NewDiscard())

	early, err := n.Subscribe(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx) }()
	<-tr.sessions

	select {
	case <-early.Done():
	case <-time.After(time.Second):
		t.Fatal("subscriber opened before the transport was receiving must resync")
	}
	assert.ErrorIs(t, early.Err(), ErrSubscriberLagged)
}
