package notifier

import (
	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Subscription подписка на изменения слотов одной парковки
type Subscription struct {
	layoutID int64
	events   chan domain.SlotChangeEvent
	done     chan struct{}
	err      error
	n        *Notifier
}

// Events канал событий. Закрывается при завершении подписки.
func (s *Subscription) Events() <-chan domain.SlotChangeEvent {
	return s.events
}

// Done закрывается при завершении подписки
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err причина завершения подписки, nil пока подписка активна
func (s *Subscription) Err() error {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	return s.err
}

// LayoutID парковка подписки
func (s *Subscription) LayoutID() int64 {
	return s.layoutID
}

// Close отписывает клиента. Повторный вызов безопасен.
func (s *Subscription) Close() {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	s.n.closeLocked(s, ErrUnsubscribed)
}
