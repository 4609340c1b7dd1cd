package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

const (
	tableName = "bookings"

	// uniqueViolation код ошибки PostgreSQL при нарушении уникальности
	uniqueViolation = "23505"
)

var bookingColumns = []string{
	"id",
	"slot_id",
	"layout_id",
	"customer_name",
	"vehicle_number",
	"vehicle_type",
	"duration_hours",
	"start_time",
	"end_time",
	"status",
	"booked_by",
	"released_by",
	"released_at",
	"created_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование.
// Если в контексте передана активная транзакция, использует её.
//
// Частичный уникальный индекс bookings(slot_id) WHERE released_at IS NULL
// не допускает второе активное бронирование слота: в этом случае возвращается ErrActiveBookingExists.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"slot_id",
			"layout_id",
			"customer_name",
			"vehicle_number",
			"vehicle_type",
			"duration_hours",
			"start_time",
			"end_time",
			"status",
			"booked_by",
		).
		Values(
			booking.SlotID,
			booking.LayoutID,
			booking.CustomerName,
			booking.VehicleNumber,
			booking.VehicleType,
			booking.DurationHours,
			booking.StartTime,
			booking.EndTime,
			booking.Status,
			booking.BookedBy,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: Create - slot %d", ErrActiveBookingExists, booking.SlotID)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// GetActiveBySlotID получает активное (не освобожденное) бронирование слота
func (r *Repository) GetActiveBySlotID(ctx context.Context, slotID int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From(tableName).
		Where(squirrel.Eq{"slot_id": slotID, "released_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveBySlotID - build select query: %v", ErrBuildQuery, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveBySlotID - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// ListBySlotID получает историю бронирований слота, новые первыми
func (r *Repository) ListBySlotID(ctx context.Context, slotID int64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From(tableName).
		Where(squirrel.Eq{"slot_id": slotID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBySlotID - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryBookings(ctx, executor, "ListBySlotID", query, args)
}

// ListActiveOnAvailableSlots возвращает активные бронирования, чей слот свободен.
// Используется сверкой консистентности.
func (r *Repository) ListActiveOnAvailableSlots(ctx context.Context) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := strayBookingsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveOnAvailableSlots - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryBookings(ctx, executor, "ListActiveOnAvailableSlots", query, args)
}

// MarkReleased помечает бронирование освобожденным, только если оно еще активно.
// Время окончания сокращается до момента освобождения.
// Если бронирование уже освобождено (проигранная гонка), возвращается ErrAlreadyReleased.
func (r *Repository) MarkReleased(ctx context.Context, id int64, at time.Time, by int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := markReleasedQuery(id, at, by).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: MarkReleased - build update query: %v", ErrBuildQuery, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: MarkReleased - execute update: %v", ErrExecQuery, err)
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}

	return nil, fmt.Errorf("%w: booking %d", ErrAlreadyReleased, id)
}

func strayBookingsQuery() squirrel.SelectBuilder {
	columns := make([]string, len(bookingColumns))
	for i, c := range bookingColumns {
		columns[i] = "b." + c
	}

	return psqlbuilder.Select(columns...).
		From(tableName + " b").
		Join("parking_slots s ON s.id = b.slot_id").
		Where(squirrel.Eq{"b.released_at": nil, "s.status": domain.SlotAvailable}).
		OrderBy("b.id ASC")
}

// markReleasedQuery закрывает бронирование, только если оно еще активно
func markReleasedQuery(id int64, at time.Time, by int64) squirrel.UpdateBuilder {
	return psqlbuilder.Update(tableName).
		Set("status", domain.BookingReleased).
		Set("released_at", at).
		Set("released_by", by).
		Set("end_time", squirrel.Expr("LEAST(end_time, ?)", at)).
		Where(squirrel.Eq{"id": id, "released_at": nil}).
		Suffix("RETURNING " + columnList())
}

func (r *Repository) queryBookings(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) ([]*domain.Booking, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute select: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan booking: %v", ErrScanRow, op, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - iterate rows: %v", ErrScanRow, op, err)
	}

	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID,
		&b.SlotID,
		&b.LayoutID,
		&b.CustomerName,
		&b.VehicleNumber,
		&b.VehicleType,
		&b.DurationHours,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.BookedBy,
		&b.ReleasedBy,
		&b.ReleasedAt,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func columnList() string {
	return strings.Join(bookingColumns, ", ")
}
