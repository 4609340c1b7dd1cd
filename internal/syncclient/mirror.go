package syncclient

import (
	"sort"
	"sync"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Mirror локальная копия слотов одной парковки.
// Снимок заменяет копию целиком; события меняют только статус и привязку к бронированию.
type Mirror struct {
	mu       sync.RWMutex
	layoutID int64
	slots    map[int64]domain.Slot
	bookings map[int64]int64
	synced   bool
}

// NewMirror создает пустую копию для парковки
func NewMirror(layoutID int64) *Mirror {
	return &Mirror{
		layoutID: layoutID,
		slots:    make(map[int64]domain.Slot),
		bookings: make(map[int64]int64),
	}
}

// ReplaceSnapshot заменяет копию снимком. Слоты других парковок игнорируются.
// Снимок не содержит бронирований: привязка сохраняется только для слотов,
// которые остались занятыми с той же версией, остальные ждут следующего события.
func (m *Mirror) ReplaceSnapshot(slots []*domain.Slot) {
	next := make(map[int64]domain.Slot, len(slots))
	for _, s := range slots {
		if s.LayoutID != m.layoutID {
			continue
		}
		next[s.ID] = *s
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bookings := make(map[int64]int64)
	for slotID, bookingID := range m.bookings {
		prev, known := m.slots[slotID]
		cur, ok := next[slotID]
		if known && ok && cur.IsOccupied() && cur.Version == prev.Version {
			bookings[slotID] = bookingID
		}
	}

	m.slots = next
	m.bookings = bookings
	m.synced = true
}

// Apply применяет событие. Возвращает false, если событие проигнорировано:
// слот неизвестен, относится к другой парковке или версия не новее текущей.
func (m *Mirror) Apply(event domain.SlotChangeEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.LayoutID != m.layoutID {
		return false
	}

	slot, ok := m.slots[event.SlotID]
	if !ok || !event.IsNewerThan(slot.Version) || !event.Status.IsValid() {
		return false
	}

	slot.Status = event.Status
	slot.Version = event.Version
	if !event.OccurredAt.IsZero() {
		slot.UpdatedAt = event.OccurredAt
	}
	m.slots[event.SlotID] = slot

	if event.Status == domain.SlotOccupied && event.BookingID != nil {
		m.bookings[event.SlotID] = *event.BookingID
	} else {
		delete(m.bookings, event.SlotID)
	}

	return true
}

// Slot возвращает слот из копии
func (m *Mirror) Slot(id int64) (domain.Slot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.slots[id]
	return s, ok
}

// Slots возвращает слоты, отсортированные по метке
func (m *Mirror) Slots() []domain.Slot {
	m.mu.RLock()
	out := make([]domain.Slot, 0, len(m.slots))
	for _, s := range m.slots {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].Label != out[b].Label {
			return out[a].Label < out[b].Label
		}
		return out[a].ID < out[b].ID
	})
	return out
}

// ActiveBooking возвращает ID бронирования, занявшего слот, если оно известно из событий.
// После снимка привязка известна только для слотов, не менявшихся с последнего события.
func (m *Mirror) ActiveBooking(slotID int64) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bookings[slotID]
	return id, ok
}

// Counts возвращает количество свободных и занятых слотов
func (m *Mirror) Counts() (available, occupied int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.slots {
		if s.IsOccupied() {
			occupied++
		} else {
			available++
		}
	}
	return available, occupied
}

// Synced сообщает, был ли получен хотя бы один снимок
func (m *Mirror) Synced() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.synced
}

// LayoutID парковка копии
func (m *Mirror) LayoutID() int64 {
	return m.layoutID
}
