package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/config"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	layoutRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/layout"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/migrations"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

type layoutRepository interface {
	Create(ctx context.Context, layout *domain.Layout) (*domain.Layout, error)
	CreateTier(ctx context.Context, tier *domain.VehicleTypeTier) (*domain.VehicleTypeTier, error)
	GetByID(ctx context.Context, id int64) (*domain.Layout, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Layout, error)
	ListTiers(ctx context.Context, layoutID int64) ([]*domain.VehicleTypeTier, error)
}

type slotRepository interface {
	CreateBatch(ctx context.Context, slots []*domain.Slot) ([]*domain.Slot, error)
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	GetByLayoutID(ctx context.Context, layoutID int64) ([]*domain.Slot, error)
	CompareAndSwapStatus(ctx context.Context, cas domain.StatusCAS) (*domain.Slot, error)
	ListOccupiedWithoutActiveBooking(ctx context.Context) ([]*domain.Slot, error)
}

type bookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetActiveBySlotID(ctx context.Context, slotID int64) (*domain.Booking, error)
	ListBySlotID(ctx context.Context, slotID int64) ([]*domain.Booking, error)
	ListActiveOnAvailableSlots(ctx context.Context) ([]*domain.Booking, error)
	MarkReleased(ctx context.Context, id int64, at time.Time, by int64) (*domain.Booking, error)
}

type transactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// storage репозитории выбранного драйвера
type storage struct {
	layouts   layoutRepository
	slots     slotRepository
	bookings  bookingRepository
	txManager transactionManager
	ping      func(ctx context.Context) error
	close     func()
}

// openStorage открывает PostgreSQL или хранилище в памяти
func openStorage(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.NewStore()
		log.Warn("Using in-memory storage: state is lost on restart")
		return &storage{
			layouts:   store.Layouts(),
			slots:     store.Slots(),
			bookings:  store.Bookings(),
			txManager: store.TxManager(),
			ping:      store.Ping,
			close:     func() {},
		}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(ctx, db, log); err != nil {
			db.Close()
			return nil, err
		}
	}

	stopStatsCh := make(chan struct{})
	wrappedDB := dbmetrics.WrapWithDefault(db, m, cfg.Metrics.ServiceName, stopStatsCh)
	if m != nil {
		log.Info("Database metrics collection started")
	}

	return &storage{
		layouts:   layoutRepo.NewRepository(wrappedDB),
		slots:     slotRepo.NewRepository(wrappedDB),
		bookings:  bookingRepo.NewRepository(wrappedDB),
		txManager: txmanager.NewTransactionManager(wrappedDB),
		ping:      db.PingContext,
		close: func() {
			close(stopStatsCh)
			db.Close()
		},
	}, nil
}
