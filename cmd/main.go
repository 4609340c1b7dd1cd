package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bookSlotHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/book_slot"
	createLayoutHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/create_layout"
	getBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_booking"
	getLayoutHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_layout"
	getLayoutSlotsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_layout_slots"
	getSlotHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_slot"
	getSlotBookingsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_slot_bookings"
	layoutEventsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/layout_events"
	listLayoutsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/list_layouts"
	releaseSlotHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/release_slot"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/config"
	"github.com/m04kA/SMC-ParkingService/internal/infra/pubsub"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/eventbus"
	"github.com/m04kA/SMC-ParkingService/internal/jobs/reconciler"
	layoutsService "github.com/m04kA/SMC-ParkingService/internal/service/layouts"
	"github.com/m04kA/SMC-ParkingService/internal/service/notifier"
	slotsService "github.com/m04kA/SMC-ParkingService/internal/service/slots"
	createLayoutUC "github.com/m04kA/SMC-ParkingService/internal/usecase/create_layout"
	"github.com/m04kA/SMC-ParkingService/internal/usecase/reservation"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
)

func main() {
	configPath := "config.toml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ParkingService...")
	log.Info("Configuration loaded from %s", configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище: PostgreSQL или память
	store, err := openStorage(ctx, cfg, metricsCollector, log)
	if err != nil {
		log.Fatal("Failed to open storage: %v", err)
	}
	defer store.close()

	// Транспорт рассылки между инстансами (опционально)
	var (
		transport notifier.Transport
		bridge    *pubsub.Bridge
	)
	if cfg.Redis.Enabled {
		client, err := pubsub.Connect(ctx, pubsub.Config{
			URL:            cfg.Redis.URL,
			RetryAttempts:  cfg.Redis.RetryAttempts,
			RetryInterval:  time.Duration(cfg.Redis.RetryInterval) * time.Second,
			ConnectTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis: %v", err)
		}
		defer client.Close()

		bridge = pubsub.NewBridge(client, cfg.Redis.ChannelPrefix, log)
		transport = bridge
		log.Info("Redis Pub/Sub bridge enabled (prefix=%s)", cfg.Redis.ChannelPrefix)
	}

	slotNotifier := notifier.NewNotifier(cfg.Notifier.BufferSize, transport, metricsCollector, log)
	defer slotNotifier.Close()

	go func() {
		if err := slotNotifier.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("Notifier transport stopped: %v", err)
		}
	}()

	// Экспорт событий бронирований (опционально)
	var bookingEvents reservation.BookingEventPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err := eventbus.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()

		bookingEvents = publisher
		log.Info("Booking events export enabled (exchange=%s)", cfg.RabbitMQ.Exchange)
	}

	// Инициализируем сервисы
	layoutSvc := layoutsService.NewService(store.layouts, log)
	slotSvc := slotsService.NewService(store.layouts, store.slots, store.bookings, log)

	// Инициализируем use cases
	createLayoutUseCase := createLayoutUC.NewUseCase(store.layouts, store.slots, store.txManager, log)
	coordinator := reservation.NewCoordinator(
		store.slots,
		store.bookings,
		store.txManager,
		slotNotifier,
		bookingEvents,
		metricsCollector,
		log,
	)

	// Сверка слотов и бронирований по расписанию
	if cfg.Reconciler.Enabled {
		rec := reconciler.NewReconciler(
			store.slots,
			store.bookings,
			store.txManager,
			slotNotifier,
			metricsCollector,
			time.Duration(cfg.Reconciler.TimeoutSeconds)*time.Second,
			log,
		)

		scheduler := reconciler.NewCron(log)
		if _, err := rec.Schedule(scheduler, cfg.Reconciler.Schedule); err != nil {
			log.Fatal("Failed to schedule reconciler: %v", err)
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()

		log.Info("Reconciler scheduled (%s)", cfg.Reconciler.Schedule)
	}

	// Инициализируем handlers
	createLayout := createLayoutHandler.NewHandler(createLayoutUseCase, log)
	listLayouts := listLayoutsHandler.NewHandler(layoutSvc, log)
	getLayout := getLayoutHandler.NewHandler(layoutSvc, log)
	getLayoutSlots := getLayoutSlotsHandler.NewHandler(slotSvc, log)
	layoutEvents := layoutEventsHandler.NewHandler(layoutSvc, slotNotifier,
		time.Duration(cfg.Notifier.HeartbeatSeconds)*time.Second, log)
	getSlot := getSlotHandler.NewHandler(slotSvc, log)
	getSlotBookings := getSlotBookingsHandler.NewHandler(slotSvc, log)
	getBooking := getBookingHandler.NewHandler(slotSvc, log)
	bookSlot := bookSlotHandler.NewHandler(coordinator, log)
	releaseSlot := releaseSlotHandler.NewHandler(coordinator, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", healthHandler(store.ping, bridge)).Methods(http.MethodGet)

	requestTimeout := time.Duration(cfg.Server.RequestTimeout) * time.Second

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// STREAM (без таймаута запроса)
	// ============================================================

	api.HandleFunc("/layouts/{layoutId}/events", layoutEvents.Handle).Methods(http.MethodGet)

	// ============================================================
	// PUBLIC ROUTES (чтение)
	// ============================================================

	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.Timeout(requestTimeout))

	public.HandleFunc("/layouts/{layoutId}", getLayout.Handle).Methods(http.MethodGet)
	public.HandleFunc("/layouts/{layoutId}/slots", getLayoutSlots.Handle).Methods(http.MethodGet)
	public.HandleFunc("/slots/{slotId}", getSlot.Handle).Methods(http.MethodGet)
	public.HandleFunc("/slots/{slotId}/bookings", getSlotBookings.Handle).Methods(http.MethodGet)
	public.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют идентификацию)
	// ============================================================

	identify := middleware.HeaderIdentifier()
	if cfg.Auth.Mode == config.AuthModeJWT {
		identify = middleware.JWTIdentifier([]byte(cfg.Auth.JWTSecret))
	}
	log.Info("Caller identity mode: %s", cfg.Auth.Mode)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(identify, log), middleware.Timeout(requestTimeout))

	protected.HandleFunc("/layouts", createLayout.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/layouts", listLayouts.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/slots/{slotId}/book", bookSlot.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/slots/{slotId}/release", releaseSlot.Handle).Methods(http.MethodPost)

	handler := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.HeaderUserID}),
	)(r)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: log}),
		handlers.PrintRecoveryStack(true),
	)(handler)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	log.Info("Shutting down server...")

	// Потоки событий закрываются первыми, иначе Shutdown ждет их до таймаута
	slotNotifier.Close()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// healthHandler проверяет хранилище и Redis
func healthHandler(pingDB func(ctx context.Context) error, bridge *pubsub.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"storage": "ok"}
		code := http.StatusOK

		if err := pingDB(ctx); err != nil {
			status["storage"] = err.Error()
			code = http.StatusServiceUnavailable
		}

		if bridge != nil {
			status["redis"] = "ok"
			if err := bridge.Ping(ctx); err != nil {
				status["redis"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}

// recoveryLogger адаптер логгера для gorilla/handlers.RecoveryHandler
type recoveryLogger struct {
	log *logger.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("Recovered from panic: %v", fmt.Sprint(v...))
}
