// Package metrics expone contadores Prometheus de las operaciones de inventario.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/vendstock-api/internal/domain"
)

// Resultados posibles de una mutación.
const (
	ResultOK           = "ok"
	ResultInsufficient = "insufficient_stock"
	ResultInvalid      = "invalid"
	ResultNotFound     = "not_found"
	ResultConflict     = "conflict"
	ResultError        = "error"
)

// InventoryMetrics registra cada mutación del motor de stock y la duración de los reportes.
// Un *InventoryMetrics nil (o creado sin registerer) no hace nada.
type InventoryMetrics struct {
	mutations    *prometheus.CounterVec
	insufficient *prometheus.CounterVec
	reports      *prometheus.HistogramVec
}

// NewInventoryMetrics registra las métricas en reg.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_mutations_total",
		Help: "Mutaciones de inventario por operación y resultado.",
	}, []string{"op", "result"})
	insufficient := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_insufficient_stock_total",
		Help: "Solicitudes rechazadas por stock insuficiente.",
	}, []string{"op"})
	reports := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_report_duration_seconds",
		Help:    "Duración de generación de reportes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})
	reg.MustRegister(mutations, insufficient, reports)
	return &InventoryMetrics{mutations: mutations, insufficient: insufficient, reports: reports}
}

// ObserveMutation implementa inventory.MutationRecorder.
func (m *InventoryMetrics) ObserveMutation(op string, err error) {
	if m == nil || m.mutations == nil {
		return
	}
	op = normalizeLabel(op)
	result := Classify(err)
	m.mutations.WithLabelValues(op, result).Inc()
	if result == ResultInsufficient {
		m.insufficient.WithLabelValues(op).Inc()
	}
}

// ObserveReport registra cuánto tardó un reporte.
func (m *InventoryMetrics) ObserveReport(report string, d time.Duration) {
	if m == nil || m.reports == nil {
		return
	}
	m.reports.WithLabelValues(normalizeLabel(report)).Observe(d.Seconds())
}

// Classify traduce un error de dominio a la etiqueta result.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrInsufficientStock):
		return ResultInsufficient
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidIdentifier), errors.Is(err, domain.ErrInvariantViolation):
		return ResultInvalid
	case errors.Is(err, domain.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrDuplicate):
		return ResultConflict
	default:
		return ResultError
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
