package grantapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/felixrdev/grant-tagging-system/internal/domain"
)

// gatewayMetrics holds prometheus metrics registered for the gateway.
type gatewayMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newGatewayMetrics(reg prometheus.Registerer) (*gatewayMetrics, error) {
	m := &gatewayMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grants",
			Subsystem: "gateway",
			Name:      "operations_total",
			Help:      "Total gateway operations by type and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grants",
			Subsystem: "gateway",
			Name:      "operation_duration_seconds",
			Help:      "Gateway operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("grantapi: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("grantapi: register metric: %w", err)
	}
	return nil
}

// Outcome labels. A response the backend sent but the schema rejected is kept
// apart from transport failures: it points at a contract drift, not an outage.
const (
	OutcomeOK              = "ok"
	OutcomeInvalidResponse = "invalid_response"
	OutcomeClientError     = "http_4xx"
	OutcomeServerError     = "http_5xx"
	OutcomeNetwork         = "network"
	OutcomeCanceled        = "canceled"
)

// outcome classifies err for the operations counter and returns the HTTP
// status when the backend answered.
func outcome(err error) (string, int) {
	if err == nil {
		return OutcomeOK, 0
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeCanceled, 0
	}
	var te *domain.TransportError
	if errors.As(err, &te) {
		switch {
		case te.StatusCode >= 500:
			return OutcomeServerError, te.StatusCode
		case te.StatusCode >= 400:
			return OutcomeClientError, te.StatusCode
		case te.StatusCode == 0:
			return OutcomeNetwork, 0
		}
	}
	if errors.Is(err, domain.ErrValidation) {
		return OutcomeInvalidResponse, 0
	}
	return OutcomeNetwork, 0
}

// observer provides logging and metrics for gateway operations.
type observer struct {
	logger  *zap.Logger
	metrics *gatewayMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *gatewayMetrics
	if reg != nil {
		var err error
		m, err = newGatewayMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	result, status := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, result).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if err == nil {
		o.logger.Debug("gateway operation completed", zap.String("op", op), zap.Duration("duration", dur))
		return
	}
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("outcome", result),
		zap.Duration("duration", dur),
		zap.Error(err),
	}
	if status != 0 {
		fields = append(fields, zap.Int("status_code", status))
	}
	if result == OutcomeCanceled {
		o.logger.Debug("gateway operation canceled", fields...)
		return
	}
	o.logger.Warn("gateway operation failed", fields...)
}
