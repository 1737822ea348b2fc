package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// RegisterMetrics groups the collectors describing cashier activity.
type RegisterMetrics struct {
	SalesTotal     prometheus.Counter
	RevenueTotal   prometheus.Counter
	DiscountTotal  prometheus.Counter
	ItemsAdded     prometheus.Counter
	UnitsSold      prometheus.Counter
	CartsCleared   prometheus.Counter
	SaleAmount     prometheus.Histogram
	Failures       *prometheus.CounterVec
	CatalogLookups *prometheus.CounterVec
	CartLines      prometheus.Gauge
}

// NewRegisterMetrics creates and registers the register collectors. Collectors
// already present in reg are reused.
func NewRegisterMetrics(namespace string, reg prometheus.Registerer) *RegisterMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &RegisterMetrics{
		SalesTotal: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_sales_total",
			Help:      "Number of completed sales.",
		})),
		RevenueTotal: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_revenue_total",
			Help:      "Sum of settled bill totals.",
		})),
		DiscountTotal: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_discount_total",
			Help:      "Sum of discounts granted on settled bills.",
		})),
		ItemsAdded: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_items_added_total",
			Help:      "Number of cart lines added.",
		})),
		UnitsSold: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_units_sold_total",
			Help:      "Number of product units on settled bills.",
		})),
		CartsCleared: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_carts_cleared_total",
			Help:      "Number of transactions discarded by the clerk.",
		})),
		SaleAmount: registerOrReuse(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "register_sale_amount",
			Help:      "Distribution of settled bill totals.",
			Buckets:   []float64{1, 5, 10, 20, 50, 100, 250},
		})),
		Failures: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_failures_total",
			Help:      "Rejected register operations by operation and error kind.",
		}, []string{"operation", "kind"})),
		CatalogLookups: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_lookup_total",
			Help:      "Catalog lookups by result.",
		}, []string{"result"})),
		CartLines: registerOrReuse(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "register_cart_lines",
			Help:      "Lines in the open transaction.",
		})),
	}
}

// RecordLookup counts a catalog lookup outcome.
func (m *RegisterMetrics) RecordLookup(result string) {
	if m == nil {
		return
	}
	m.CatalogLookups.WithLabelValues(result).Inc()
}

// RecordFailure counts a rejected register operation.
func (m *RegisterMetrics) RecordFailure(operation, kind string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(operation, kind).Inc()
}

func amount(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
