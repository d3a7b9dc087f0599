// Package metrics holds the prometheus collectors of the marketplace API.
// Each Metrics value owns its registry so several apps can coexist in one
// process (tests build one app per case).
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	Imports       *prometheus.CounterVec
	OrdersPlaced  prometheus.Counter
	BasketChanges *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricelist_imports_total",
			Help: "Price list imports by result",
		}, []string{"result"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Baskets turned into placed orders",
		}),
		BasketChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "basket_lines_changed_total",
			Help: "Basket lines created, merged, updated or deleted",
		}, []string{"op"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests, m.Duration, m.Imports, m.OrdersPlaced, m.BasketChanges,
	)
	return m
}

// Middleware records request count and latency by route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		m.Requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.Duration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// ImportResult counts one import outcome ("ok" or an error code).
func (m *Metrics) ImportResult(result string) {
	if m == nil {
		return
	}
	m.Imports.WithLabelValues(result).Inc()
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.OrdersPlaced.Inc()
}

func (m *Metrics) BasketChanged(op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BasketChanges.WithLabelValues(op).Add(float64(n))
}
