package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	slotstorage "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
)

// SlotRepository слоты в памяти
type SlotRepository struct {
	s *Store
}

// CreateBatch создает слоты. Метки уникальны в пределах парковки.
func (r *SlotRepository) CreateBatch(ctx context.Context, slots []*domain.Slot) ([]*domain.Slot, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]map[string]struct{})
	for _, sl := range slots {
		if _, exists := s.labels[sl.LayoutID][sl.Label]; exists {
			return nil, fmt.Errorf("%w: CreateBatch - %s", slotstorage.ErrDuplicateLabel, sl.Label)
		}
		if seen[sl.LayoutID] == nil {
			seen[sl.LayoutID] = make(map[string]struct{})
		}
		if _, dup := seen[sl.LayoutID][sl.Label]; dup {
			return nil, fmt.Errorf("%w: CreateBatch - %s", slotstorage.ErrDuplicateLabel, sl.Label)
		}
		seen[sl.LayoutID][sl.Label] = struct{}{}
	}

	now := s.now()
	for _, sl := range slots {
		s.lastSlotID++
		sl.ID = s.lastSlotID
		sl.Status = domain.SlotAvailable
		sl.Version = 1
		sl.CreatedAt = now
		sl.UpdatedAt = now

		rec := &slotRecord{committed: *sl, owner: j}
		id, layoutID, label := sl.ID, sl.LayoutID, sl.Label

		s.slots[id] = rec
		s.slotsByLayout[layoutID] = append(s.slotsByLayout[layoutID], id)
		if s.labels[layoutID] == nil {
			s.labels[layoutID] = make(map[string]int64)
		}
		s.labels[layoutID][label] = id

		track(j,
			func() {
				delete(s.slots, id)
				delete(s.labels[layoutID], label)
				ids := s.slotsByLayout[layoutID]
				for i, sid := range ids {
					if sid == id {
						s.slotsByLayout[layoutID] = append(ids[:i], ids[i+1:]...)
						break
					}
				}
			},
			func() { rec.owner = nil },
		)
	}

	return slots, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.slots[id]
	if !ok || !visible(rec.owner, j) {
		return nil, slotstorage.ErrSlotNotFound
	}

	sl := rec.view(j)
	return &sl, nil
}

// GetByLayoutID получает слоты парковки, отсортированные по метке
func (r *SlotRepository) GetByLayoutID(ctx context.Context, layoutID int64) ([]*domain.Slot, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]*domain.Slot, 0, len(s.slotsByLayout[layoutID]))
	for _, id := range s.slotsByLayout[layoutID] {
		rec := s.slots[id]
		if !visible(rec.owner, j) {
			continue
		}
		sl := rec.view(j)
		slots = append(slots, &sl)
	}

	sort.Slice(slots, func(a, b int) bool {
		if slots[a].Label != slots[b].Label {
			return slots[a].Label < slots[b].Label
		}
		return slots[a].ID < slots[b].ID
	})

	return slots, nil
}

// CompareAndSwapStatus условно переводит слот из cas.From в cas.To.
// Захватывает блокировку строки слота: конкурирующие транзакции ждут фиксации
// или отката первой и затем видят уже измененный статус.
func (r *SlotRepository) CompareAndSwapStatus(ctx context.Context, cas domain.StatusCAS) (*domain.Slot, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	rec, ok := s.slots[cas.SlotID]
	exists := ok && visible(rec.owner, j)
	s.mu.Unlock()

	if !exists {
		return nil, slotstorage.ErrSlotNotFound
	}

	unlock, err := s.lockSlot(ctx, j, cas.SlotID)
	if err != nil {
		return nil, fmt.Errorf("%w: CompareAndSwapStatus - lock slot %d: %v", slotstorage.ErrExecQuery, cas.SlotID, err)
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := rec.view(j)
	if cur.Status != cas.From || (cas.Version > 0 && cur.Version != cas.Version) {
		return nil, fmt.Errorf("%w: slot %d is not %s", slotstorage.ErrStatusConflict, cas.SlotID, cas.From)
	}

	next := cur
	next.Status = cas.To
	next.Version++
	next.UpdatedAt = s.now()

	if j == nil {
		rec.committed = next
		return &next, nil
	}

	prevDirty := rec.dirty
	dirty := next
	rec.dirty = &dirty
	rec.dirtyOwner = j

	track(j,
		func() {
			rec.dirty = prevDirty
			if prevDirty == nil {
				rec.dirtyOwner = nil
			}
		},
		func() {
			if rec.dirty != nil {
				rec.committed = *rec.dirty
				rec.dirty = nil
				rec.dirtyOwner = nil
			}
		},
	)

	return &next, nil
}

// ListOccupiedWithoutActiveBooking возвращает занятые слоты без активного бронирования
func (r *SlotRepository) ListOccupiedWithoutActiveBooking(ctx context.Context) ([]*domain.Slot, error) {
	j := journalFrom(ctx)
	s := r.s

	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.activeSlots(j)

	slots := make([]*domain.Slot, 0)
	for _, rec := range s.slots {
		if !visible(rec.owner, j) {
			continue
		}
		sl := rec.view(j)
		if sl.Status != domain.SlotOccupied {
			continue
		}
		if _, ok := active[sl.ID]; ok {
			continue
		}
		slots = append(slots, &sl)
	}

	sort.Slice(slots, func(a, b int) bool { return slots[a].ID < slots[b].ID })

	return slots, nil
}

// activeSlots множество слотов с активным бронированием. Вызывается под s.mu.
func (s *Store) activeSlots(j *journal) map[int64]struct{} {
	active := make(map[int64]struct{})
	for _, rec := range s.bookings {
		if visible(rec.owner, j) && rec.booking.IsActive() {
			active[rec.booking.SlotID] = struct{}{}
		}
	}
	return active
}
