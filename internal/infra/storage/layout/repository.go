package layout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

const (
	layoutsTable = "parking_layouts"
	tiersTable   = "vehicle_types"

	// uniqueViolation код ошибки PostgreSQL при нарушении уникальности
	uniqueViolation = "23505"
)

var layoutColumns = []string{
	"id",
	"owner_id",
	"name",
	"location",
	"city",
	"latitude",
	"longitude",
	"created_at",
}

var tierColumns = []string{
	"id",
	"layout_id",
	"name",
	"price_per_hour",
	"prefix",
	"start_number",
	"slot_count",
	"created_at",
}

// Repository репозиторий парковок и их типов транспорта.
// После создания парковка не изменяется.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория парковок
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает парковку
func (r *Repository) Create(ctx context.Context, layout *domain.Layout) (*domain.Layout, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(layoutsTable).
		Columns("owner_id", "name", "location", "city", "latitude", "longitude").
		Values(layout.OwnerID, layout.Name, layout.Location, layout.City, layout.Latitude, layout.Longitude).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&layout.ID, &layout.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return layout, nil
}

// CreateTier создает тип транспорта парковки
func (r *Repository) CreateTier(ctx context.Context, tier *domain.VehicleTypeTier) (*domain.VehicleTypeTier, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tiersTable).
		Columns("layout_id", "name", "price_per_hour", "prefix", "start_number", "slot_count").
		Values(tier.LayoutID, tier.Name, tier.PricePerHour, tier.Prefix, tier.StartNumber, tier.SlotCount).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateTier - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&tier.ID, &tier.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: CreateTier - %s", ErrDuplicateTier, tier.Name)
		}
		return nil, fmt.Errorf("%w: CreateTier - execute insert: %v", ErrExecQuery, err)
	}

	return tier, nil
}

// GetByID получает парковку по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Layout, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(layoutColumns...).
		From(layoutsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	l, err := scanLayout(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLayoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan layout: %v", ErrScanRow, err)
	}

	return l, nil
}

// ListByOwner получает парковки владельца, новые первыми
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Layout, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(layoutColumns...).
		From(layoutsTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByOwner - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByOwner - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	layouts := make([]*domain.Layout, 0)
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByOwner - scan layout: %v", ErrScanRow, err)
		}
		layouts = append(layouts, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByOwner - iterate rows: %v", ErrScanRow, err)
	}

	return layouts, nil
}

// ListTiers получает типы транспорта парковки в порядке создания
func (r *Repository) ListTiers(ctx context.Context, layoutID int64) ([]*domain.VehicleTypeTier, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(tierColumns...).
		From(tiersTable).
		Where(squirrel.Eq{"layout_id": layoutID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListTiers - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListTiers - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	tiers := make([]*domain.VehicleTypeTier, 0)
	for rows.Next() {
		var t domain.VehicleTypeTier
		err := rows.Scan(
			&t.ID,
			&t.LayoutID,
			&t.Name,
			&t.PricePerHour,
			&t.Prefix,
			&t.StartNumber,
			&t.SlotCount,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListTiers - scan tier: %v", ErrScanRow, err)
		}
		tiers = append(tiers, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListTiers - iterate rows: %v", ErrScanRow, err)
	}

	return tiers, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLayout(row rowScanner) (*domain.Layout, error) {
	var l domain.Layout
	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Name,
		&l.Location,
		&l.City,
		&l.Latitude,
		&l.Longitude,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
