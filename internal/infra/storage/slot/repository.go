package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

const (
	tableName = "parking_slots"

	// uniqueViolation код ошибки PostgreSQL при нарушении уникальности
	uniqueViolation = "23505"
)

var slotColumns = []string{
	"id",
	"layout_id",
	"label",
	"vehicle_type",
	"status",
	"version",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы со слотами парковки.
// Единственный способ изменить статус слота - CompareAndSwapStatus.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateBatch создает слоты парковки одним запросом.
// Вызывается только при создании парковки, внутри транзакции.
func (r *Repository) CreateBatch(ctx context.Context, slots []*domain.Slot) ([]*domain.Slot, error) {
	if len(slots) == 0 {
		return slots, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Insert(tableName).
		Columns("layout_id", "label", "vehicle_type", "status")

	for _, s := range slots {
		builder = builder.Values(s.LayoutID, s.Label, s.VehicleType, domain.SlotAvailable)
	}

	query, args, err := builder.
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateBatch - build insert query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: CreateBatch: %v", ErrDuplicateLabel, err)
		}
		return nil, fmt.Errorf("%w: CreateBatch - execute insert: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	// PostgreSQL возвращает строки RETURNING в порядке VALUES
	i := 0
	for rows.Next() {
		if i >= len(slots) {
			return nil, fmt.Errorf("%w: CreateBatch - unexpected extra row", ErrScanRow)
		}
		s := slots[i]
		if err := rows.Scan(&s.ID, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: CreateBatch - scan slot: %v", ErrScanRow, err)
		}
		s.Status = domain.SlotAvailable
		i++
	}

	if err := rows.Err(); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: CreateBatch: %v", ErrDuplicateLabel, err)
		}
		return nil, fmt.Errorf("%w: CreateBatch - iterate rows: %v", ErrScanRow, err)
	}

	return slots, nil
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	s, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return s, nil
}

// GetByLayoutID получает все слоты парковки, отсортированные по метке
func (r *Repository) GetByLayoutID(ctx context.Context, layoutID int64) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From(tableName).
		Where(squirrel.Eq{"layout_id": layoutID}).
		OrderBy("label ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByLayoutID - build select query: %v", ErrBuildQuery, err)
	}

	return r.querySlots(ctx, executor, "GetByLayoutID", query, args)
}

// CompareAndSwapStatus переводит слот из статуса cas.From в cas.To,
// только если текущий статус равен cas.From (и версия равна cas.Version, если она задана).
// При успехе версия увеличивается на 1 и возвращается обновленный слот.
//
// Конкурентные вызовы для одного слота упорядочиваются блокировкой строки в PostgreSQL:
// побеждает первая зафиксированная транзакция, остальные получают ErrStatusConflict.
func (r *Repository) CompareAndSwapStatus(ctx context.Context, cas domain.StatusCAS) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := casQuery(cas).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CompareAndSwapStatus - build update query: %v", ErrBuildQuery, err)
	}

	s, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: CompareAndSwapStatus - execute update: %v", ErrExecQuery, err)
	}

	// Ни одна строка не обновлена: различаем отсутствие слота и конфликт статуса
	if _, getErr := r.GetByID(ctx, cas.SlotID); getErr != nil {
		return nil, getErr
	}

	return nil, fmt.Errorf("%w: slot %d is not %s", ErrStatusConflict, cas.SlotID, cas.From)
}

// ListOccupiedWithoutActiveBooking возвращает занятые слоты без активного бронирования.
// Используется сверкой консистентности.
func (r *Repository) ListOccupiedWithoutActiveBooking(ctx context.Context) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := orphanedSlotsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOccupiedWithoutActiveBooking - build select query: %v", ErrBuildQuery, err)
	}

	return r.querySlots(ctx, executor, "ListOccupiedWithoutActiveBooking", query, args)
}

// casQuery условный переход статуса: строка обновляется, только если статус (и версия) совпали
func casQuery(cas domain.StatusCAS) squirrel.UpdateBuilder {
	where := squirrel.Eq{"id": cas.SlotID, "status": cas.From}
	if cas.Version > 0 {
		where["version"] = cas.Version
	}

	return psqlbuilder.Update(tableName).
		Set("status", cas.To).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(where).
		Suffix("RETURNING " + strings.Join(slotColumns, ", "))
}

func orphanedSlotsQuery() squirrel.SelectBuilder {
	return psqlbuilder.Select(slotColumns...).
		From(tableName).
		Where(squirrel.Eq{"status": domain.SlotOccupied}).
		Where("NOT EXISTS (SELECT 1 FROM bookings b WHERE b.slot_id = parking_slots.id AND b.released_at IS NULL)").
		OrderBy("id ASC")
}

func (r *Repository) querySlots(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) ([]*domain.Slot, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute select: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan slot: %v", ErrScanRow, op, err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - iterate rows: %v", ErrScanRow, op, err)
	}

	return slots, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var s domain.Slot
	err := row.Scan(
		&s.ID,
		&s.LayoutID,
		&s.Label,
		&s.VehicleType,
		&s.Status,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
