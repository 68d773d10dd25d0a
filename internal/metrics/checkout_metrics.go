package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики оформления продаж.
type CheckoutMetrics struct {
	// Счётчики результатов
	ordersPlaced   prometheus.Counter
	ordersRejected *prometheus.CounterVec

	// Гистограммы
	checkoutDuration prometheus.Histogram
	saleAmount       prometheus.Histogram

	// Gauge активных оформлений
	activeCheckouts prometheus.Gauge

	// Счётчик событий outbox
	outboxEvents prometheus.Counter
}

// NewCheckoutMetrics создаёт новый экземпляр метрик оформления.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_orders_placed_total",
			Help: "Total number of successfully placed orders",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_orders_rejected_total",
			Help: "Total number of rejected orders grouped by reason",
		}, []string{"reason"}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pos_checkout_duration_seconds",
			Help:    "Duration of order placement in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		saleAmount: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pos_sale_amount",
			Help:    "Distribution of sale totals",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		activeCheckouts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "pos_active_checkouts",
			Help: "Number of order placements currently in flight",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_outbox_events_total",
			Help: "Total number of sale events enqueued to the outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderPlaced увеличивает счётчик успешно оформленных продаж.
func (m *CheckoutMetrics) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

// RecordOrderRejected увеличивает счётчик отклонённых заказов по причине.
func (m *CheckoutMetrics) RecordOrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordCheckoutDuration записывает длительность оформления.
func (m *CheckoutMetrics) RecordCheckoutDuration(duration time.Duration) {
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordSaleAmount записывает итоговую сумму продажи.
func (m *CheckoutMetrics) RecordSaleAmount(amount float64) {
	m.saleAmount.Observe(amount)
}

// RecordCheckoutStarted увеличивает число активных оформлений.
func (m *CheckoutMetrics) RecordCheckoutStarted() {
	m.activeCheckouts.Inc()
}

// RecordCheckoutFinished уменьшает число активных оформлений.
func (m *CheckoutMetrics) RecordCheckoutFinished() {
	m.activeCheckouts.Dec()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *CheckoutMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
