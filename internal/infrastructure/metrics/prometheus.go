// Package metrics expone los contadores del libro de lotes y del HTTP en Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var _ inventory.Metrics = (*Metrics)(nil)

const namespace = "inventario"

// Metrics registro propio (no el global) con las series del servicio.
type Metrics struct {
	registry *prometheus.Registry

	lotsCreated      *prometheus.CounterVec
	lotQuantity      *prometheus.CounterVec
	allocations      *prometheus.CounterVec
	allocatedQty     *prometheus.CounterVec
	transfers        *prometheus.CounterVec
	transferDuration *prometheus.HistogramVec
	reversedQty      *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New crea el registro con los colectores de Go y de proceso.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.lotsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lots_created_total",
		Help:      "Lotes creados por origen (purchase, transfer, reversal).",
	}, []string{"source"})
	m.lotQuantity = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lot_quantity_created_total",
		Help:      "Cantidad en unidad base ingresada en lotes nuevos.",
	}, []string{"source"})
	m.allocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "allocations_total",
		Help:      "Asignaciones FIFO por resultado.",
	}, []string{"outcome"})
	m.allocatedQty = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "allocated_quantity_total",
		Help:      "Cantidad asignada (o rechazada) en unidad base.",
	}, []string{"outcome"})
	m.transfers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transfers_total",
		Help:      "Traslados entre tiendas por resultado.",
	}, []string{"outcome"})
	m.transferDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transfer_duration_seconds",
		Help:      "Duración de la transacción de traslado.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"outcome"})
	m.reversedQty = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reversed_quantity_total",
		Help:      "Cantidad restituida por cancelaciones, por política.",
	}, []string{"policy"})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Peticiones HTTP por método, ruta y estado.",
	}, []string{"method", "path", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duración de las peticiones HTTP.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	registry.MustRegister(
		m.lotsCreated, m.lotQuantity,
		m.allocations, m.allocatedQty,
		m.transfers, m.transferDuration,
		m.reversedQty,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry para tests y exportadores adicionales.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) LotCreated(source string, quantity decimal.Decimal) {
	m.lotsCreated.WithLabelValues(source).Inc()
	m.lotQuantity.WithLabelValues(source).Add(quantity.InexactFloat64())
}

func (m *Metrics) Allocation(outcome string, quantity decimal.Decimal) {
	m.allocations.WithLabelValues(outcome).Inc()
	m.allocatedQty.WithLabelValues(outcome).Add(quantity.InexactFloat64())
}

func (m *Metrics) Transfer(outcome string, elapsed time.Duration) {
	m.transfers.WithLabelValues(outcome).Inc()
	m.transferDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) Reversal(policy string, quantity decimal.Decimal) {
	m.reversedQty.WithLabelValues(policy).Add(quantity.InexactFloat64())
}

// Middleware mide cada petición. Usa la ruta registrada (no la URL) para acotar la cardinalidad.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < fiber.StatusBadRequest {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		m.httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
