// Package notifier рассылает зафиксированные изменения слотов подписчикам парковки.
//
// Порядок доставки соблюдается по каждому слоту: событие с версией не новее уже
// доставленной устарело и отбрасывается. Медленный подписчик отключается с
// ErrSubscriberLagged вместо блокировки рассылки. Отключенные подписчики событий не получают.
package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
)

const (
	defaultBufferSize = 64

	transportRetryBase = 500 * time.Millisecond
	transportRetryMax  = 30 * time.Second
)

// errReceiveLost завершает серию повторов после успешной сессии транспорта
var errReceiveLost = errors.New("notifier: transport receive loop lost")

// Notifier рассылка изменений слотов по парковкам
type Notifier struct {
	mu          sync.Mutex
	hubs        map[int64]*hub
	subscribers int
	closed      bool
	// receiving прием событий транспорта подтвержден
	receiving bool

	bufferSize int
	transport  Transport
	retryBase  time.Duration
	retryMax   time.Duration
	metrics    *metrics.Metrics
	logger     Logger
}

// hub подписчики одной парковки и последние доставленные версии слотов
type hub struct {
	subs        map[*Subscription]struct{}
	lastVersion map[int64]int64
}

// NewNotifier создает рассылку. transport и m могут быть nil: тогда события доставляются только внутри процесса.
func NewNotifier(bufferSize int, transport Transport, m *metrics.Metrics, logger Logger) *Notifier {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &Notifier{
		hubs:       make(map[int64]*hub),
		bufferSize: bufferSize,
		transport:  transport,
		retryBase:  transportRetryBase,
		retryMax:   transportRetryMax,
		metrics:    m,
		logger:     logger,
	}
}

// Subscribe подписывает на изменения слотов парковки.
// Подписка закрывается при отмене ctx, вызове Close или отставании.
func (n *Notifier) Subscribe(ctx context.Context, layoutID int64) (*Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, ErrClosed
	}

	sub := &Subscription{
		layoutID: layoutID,
		events:   make(chan domain.SlotChangeEvent, n.bufferSize),
		done:     make(chan struct{}),
		n:        n,
	}

	h, ok := n.hubs[layoutID]
	if !ok {
		h = &hub{
			subs:        make(map[*Subscription]struct{}),
			lastVersion: make(map[int64]int64),
		}
		n.hubs[layoutID] = h
	}
	h.subs[sub] = struct{}{}

	n.subscribers++
	n.metrics.SetSubscribers(n.subscribers)

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				sub.Close()
			case <-sub.done:
			}
		}()
	}

	return sub, nil
}

// Publish рассылает событие. При наличии транспорта событие уходит через него.
// Пока прием транспорта не подтвержден или публикация не удалась, событие доставляется локально.
func (n *Notifier) Publish(ctx context.Context, event domain.SlotChangeEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if n.transport != nil {
		err := n.transport.Publish(ctx, event)
		if err == nil && n.isReceiving() {
			return
		}
		if err != nil {
			n.logger.Warn("Notifier: transport publish failed for slot id=%d, delivering locally: %v", event.SlotID, err)
		}
	}

	n.deliver(event)
}

// Run принимает события от транспорта до отмены ctx.
// Прием перезапускается с экспоненциальной задержкой; при каждой потере приема
// и повторной подписке локальные подписки закрываются с ErrSubscriberLagged.
// Без транспорта просто ждет отмены.
func (n *Notifier) Run(ctx context.Context) error {
	if n.transport == nil {
		<-ctx.Done()
		return nil
	}

	for ctx.Err() == nil {
		_ = retry.Do(ctx, n.backoff(), func(ctx context.Context) error {
			err := n.transport.Run(ctx, n.receiveStarted, n.deliver)
			wasReceiving := n.receiveStopped()
			if ctx.Err() != nil {
				return nil
			}
			if err == nil {
				err = errReceiveLost
			}
			n.logger.Warn("Notifier: transport receive loop stopped, restarting: %v", err)

			if wasReceiving {
				// после рабочей сессии начинаем повторы заново
				return errReceiveLost
			}
			return retry.RetryableError(err)
		})

		select {
		case <-ctx.Done():
		case <-time.After(n.retryBase):
		}
	}

	return nil
}

func (n *Notifier) backoff() retry.Backoff {
	return retry.WithCappedDuration(n.retryMax, retry.NewExponential(n.retryBase))
}

func (n *Notifier) isReceiving() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.receiving
}

// receiveStarted вызывается транспортом после подтверждения подписки.
// Подписчики, открытые до этого, могли пропустить события других инстансов.
func (n *Notifier) receiveStarted() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.receiving = true
	n.resyncAllLocked("transport subscribed")
}

// receiveStopped отмечает потерю приема. Возвращает true, если прием был подтвержден.
func (n *Notifier) receiveStopped() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	was := n.receiving
	n.receiving = false
	if was {
		n.resyncAllLocked("transport receive lost")
	}
	return was
}

// resyncAllLocked закрывает все подписки с ErrSubscriberLagged. Вызывается под n.mu.
func (n *Notifier) resyncAllLocked(reason string) {
	if n.closed || n.subscribers == 0 {
		return
	}

	n.logger.Warn("Notifier: %s, disconnecting %d subscribers for resync", reason, n.subscribers)
	for _, h := range n.hubs {
		for sub := range h.subs {
			n.metrics.IncEventsDropped(metrics.DropReasonLagged)
			n.closeLocked(sub, ErrSubscriberLagged)
		}
	}
}

// Close закрывает все подписки. Дальнейшие события не доставляются.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true

	for _, h := range n.hubs {
		for sub := range h.subs {
			n.closeLocked(sub, ErrClosed)
		}
	}
}

// deliver доставляет событие подписчикам парковки без блокировки
func (n *Notifier) deliver(event domain.SlotChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	h, ok := n.hubs[event.LayoutID]
	if !ok || n.closed {
		return
	}

	if last, seen := h.lastVersion[event.SlotID]; seen && !event.IsNewerThan(last) {
		n.metrics.IncEventsDropped(metrics.DropReasonStale)
		return
	}
	h.lastVersion[event.SlotID] = event.Version

	for sub := range h.subs {
		select {
		case sub.events <- event:
		default:
			n.logger.Warn("Notifier: subscriber of layout id=%d lagged, disconnecting", event.LayoutID)
			n.metrics.IncEventsDropped(metrics.DropReasonLagged)
			n.closeLocked(sub, ErrSubscriberLagged)
		}
	}

	n.metrics.IncEventsPublished()
}

// closeLocked завершает подписку. Вызывается под n.mu.
func (n *Notifier) closeLocked(sub *Subscription, reason error) {
	if sub.err != nil {
		return
	}
	sub.err = reason
	close(sub.events)
	close(sub.done)

	if h, ok := n.hubs[sub.layoutID]; ok {
		delete(h.subs, sub)
		if len(h.subs) == 0 {
			delete(n.hubs, sub.layoutID)
		}
	}

	n.subscribers--
	n.metrics.SetSubscribers(n.subscribers)
}

// Subscribers количество активных подписок
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.subscribers
}
