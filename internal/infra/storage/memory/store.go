// Package memory реализует хранилище парковок в памяти процесса.
//
// Семантика повторяет PostgreSQL-хранилище: изменения внутри TxManager.Do
// невидимы другим читателям до фиксации, CompareAndSwapStatus удерживает
// блокировку строки слота до конца транзакции, при ошибке изменения откатываются.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Store общее состояние in-memory хранилища
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	lastLayoutID  int64
	lastTierID    int64
	lastSlotID    int64
	lastBookingID int64

	layouts       map[int64]*layoutRecord
	tiers         map[int64][]*tierRecord
	slots         map[int64]*slotRecord
	slotsByLayout map[int64][]int64
	labels        map[int64]map[string]int64
	bookings      map[int64]*bookingRecord

	// блокировки строк слотов: буфер 1, занят - значит слот заблокирован транзакцией
	locks map[int64]chan struct{}
}

type layoutRecord struct {
	layout domain.Layout
	owner  *journal
}

type tierRecord struct {
	tier  domain.VehicleTypeTier
	owner *journal
}

type slotRecord struct {
	committed domain.Slot
	owner     *journal

	// dirty незафиксированное состояние транзакции dirtyOwner
	dirty      *domain.Slot
	dirtyOwner *journal
}

type bookingRecord struct {
	booking domain.Booking
	owner   *journal
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		now:           time.Now,
		layouts:       make(map[int64]*layoutRecord),
		tiers:         make(map[int64][]*tierRecord),
		slots:         make(map[int64]*slotRecord),
		slotsByLayout: make(map[int64][]int64),
		labels:        make(map[int64]map[string]int64),
		bookings:      make(map[int64]*bookingRecord),
		locks:         make(map[int64]chan struct{}),
	}
}

// Layouts возвращает репозиторий парковок
func (s *Store) Layouts() *LayoutRepository {
	return &LayoutRepository{s: s}
}

// Slots возвращает репозиторий слотов
func (s *Store) Slots() *SlotRepository {
	return &SlotRepository{s: s}
}

// Bookings возвращает репозиторий бронирований
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{s: s}
}

// TxManager возвращает менеджер транзакций хранилища
func (s *Store) TxManager() *TxManager {
	return &TxManager{s: s}
}

// Ping всегда успешен
func (s *Store) Ping(context.Context) error {
	return nil
}

func visible(owner, j *journal) bool {
	return owner == nil || owner == j
}

// view возвращает состояние слота, видимое транзакции j
func (r *slotRecord) view(j *journal) domain.Slot {
	if r.dirty != nil && r.dirtyOwner == j {
		return *r.dirty
	}
	return r.committed
}

func (s *Store) lockFor(slotID int64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.locks[slotID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[slotID] = ch
	}
	return ch
}

// lockSlot захватывает блокировку строки слота.
// Внутри транзакции блокировка удерживается до её завершения, иначе - до вызова unlock.
func (s *Store) lockSlot(ctx context.Context, j *journal, slotID int64) (func(), error) {
	if j != nil {
		if _, held := j.locked[slotID]; held {
			return func() {}, nil
		}
	}

	ch := s.lockFor(slotID)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if j != nil {
		j.locked[slotID] = struct{}{}
		return func() {}, nil
	}
	return func() { <-ch }, nil
}
