package syncclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/notifier"
)

// Source источник снимка и потока событий парковки
type Source interface {
	Snapshot(ctx context.Context, layoutID int64) ([]*domain.Slot, error)
	Subscribe(ctx context.Context, layoutID int64) (Stream, error)
}

// Stream поток событий. Events закрывается при завершении, причина - в Err.
type Stream interface {
	Events() <-chan domain.SlotChangeEvent
	Err() error
	Close()
}

// LayoutReader чтение парковки
type LayoutReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Layout, error)
}

// SlotReader чтение слотов парковки
type SlotReader interface {
	GetByLayoutID(ctx context.Context, layoutID int64) ([]*domain.Slot, error)
}

// Subscriber подписка на изменения слотов внутри процесса
type Subscriber interface {
	Subscribe(ctx context.Context, layoutID int64) (*notifier.Subscription, error)
}

// LocalSource источник внутри процесса: хранилище и рассылка
type LocalSource struct {
	layouts  LayoutReader
	slots    SlotReader
	notifier Subscriber
}

// NewLocalSource создает источник внутри процесса
func NewLocalSource(layouts LayoutReader, slots SlotReader, n Subscriber) *LocalSource {
	return &LocalSource{layouts: layouts, slots: slots, notifier: n}
}

// Snapshot читает слоты парковки из хранилища
func (s *LocalSource) Snapshot(ctx context.Context, layoutID int64) ([]*domain.Slot, error) {
	if _, err := s.layouts.GetByID(ctx, layoutID); err != nil {
		if errors.Is(err, domain.ErrLayoutNotFound) {
			return nil, ErrLayoutNotFound
		}
		return nil, fmt.Errorf("get layout %d: %w", layoutID, err)
	}

	return s.slots.GetByLayoutID(ctx, layoutID)
}

// Subscribe подписывается на рассылку парковки
func (s *LocalSource) Subscribe(ctx context.Context, layoutID int64) (Stream, error) {
	sub, err := s.notifier.Subscribe(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
