package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты операций бронирования/освобождения для метрик
const (
	ResultSuccess        = "success"
	ResultConflict       = "conflict"
	ResultNotFound       = "not_found"
	ResultInvalid        = "invalid"
	ResultOutcomeUnknown = "outcome_unknown"
	ResultPartialWrite   = "partial_write"
	ResultInternalError  = "error"
	DropReasonStale      = "stale"
	DropReasonLagged     = "lagged"
	RepairOrphanedSlot   = "orphaned_slot"
	RepairStrayBooking   = "stray_booking"
)

// Metrics структура для метрик Prometheus
// Все методы безопасны для вызова на nil (метрики выключены)
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration    *prometheus.HistogramVec
	DBOpenConnections  *prometheus.GaugeVec
	DBInUseConnections *prometheus.GaugeVec
	DBIdleConnections  *prometheus.GaugeVec
	DBWaitCount        *prometheus.GaugeVec

	BookingsTotal      *prometheus.CounterVec
	ReleasesTotal      *prometheus.CounterVec
	PartialWritesTotal prometheus.Counter
	EventsPublished    prometheus.Counter
	EventsDropped      *prometheus.CounterVec
	Subscribers        prometheus.Gauge
	ReconcilerRepairs  *prometheus.CounterVec
}

// New создает метрики в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики в указанном реестре (используется в тестах)
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Duration of HTTP requests",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Duration of database queries",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		DBOpenConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Number of established connections",
		}, []string{"service"}),

		DBInUseConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Number of connections currently in use",
		}, []string{"service"}),

		DBIdleConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Number of idle connections",
		}, []string{"service"}),

		DBWaitCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_wait_count",
			Help: "Total number of connections waited for",
		}, []string{"service"}),

		BookingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "parking_bookings_total",
			Help:        "Book attempts by result",
			ConstLabels: constLabels,
		}, []string{"result"}),

		ReleasesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "parking_releases_total",
			Help:        "Release attempts by result",
			ConstLabels: constLabels,
		}, []string{"result"}),

		PartialWritesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "parking_partial_writes_total",
			Help:        "Booking and slot status writes that diverged",
			ConstLabels: constLabels,
		}),

		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name:        "parking_slot_events_published_total",
			Help:        "Slot change events delivered to the notifier",
			ConstLabels: constLabels,
		}),

		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "parking_slot_events_dropped_total",
			Help:        "Slot change events not delivered, by reason",
			ConstLabels: constLabels,
		}, []string{"reason"}),

		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "parking_slot_subscribers",
			Help:        "Active change stream subscribers",
			ConstLabels: constLabels,
		}),

		ReconcilerRepairs: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "parking_reconciler_repairs_total",
			Help:        "Inconsistencies repaired by the reconciler",
			ConstLabels: constLabels,
		}, []string{"kind"}),
	}
}

// ObserveBooking учитывает результат попытки бронирования
func (m *Metrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(result).Inc()
}

// ObserveRelease учитывает результат попытки освобождения слота
func (m *Metrics) ObserveRelease(result string) {
	if m == nil {
		return
	}
	m.ReleasesTotal.WithLabelValues(result).Inc()
}

// IncPartialWrites учитывает расхождение записей бронирования и статуса слота
func (m *Metrics) IncPartialWrites() {
	if m == nil {
		return
	}
	m.PartialWritesTotal.Inc()
}

// IncEventsPublished учитывает доставленное событие
func (m *Metrics) IncEventsPublished() {
	if m == nil {
		return
	}
	m.EventsPublished.Inc()
}

// IncEventsDropped учитывает недоставленное событие
func (m *Metrics) IncEventsDropped(reason string) {
	if m == nil {
		return
	}
	m.EventsDropped.WithLabelValues(reason).Inc()
}

// SetSubscribers устанавливает количество активных подписчиков
func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.Subscribers.Set(float64(n))
}

// IncReconcilerRepairs учитывает исправление, выполненное reconciler'ом
func (m *Metrics) IncReconcilerRepairs(kind string) {
	if m == nil {
		return
	}
	m.ReconcilerRepairs.WithLabelValues(kind).Inc()
}
