package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики релея
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах

// AlertsTotal - количество обработанных алертов по действию и исходу
//
// outcome: executed, no_position, insufficient_balance, rejected, error
var AlertsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hyperhook",
		Subsystem: "relay",
		Name:      "alerts_total",
		Help:      "Total number of processed webhook alerts",
	},
	[]string{"action", "outcome"},
)

// OrderExecutionLatency - время исполнения ордера на бирже
var OrderExecutionLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "hyperhook",
		Subsystem: "relay",
		Name:      "order_execution_latency_ms",
		Help:      "Time to execute a market order on the exchange in milliseconds",
		Buckets:   []float64{50, 100, 200, 300, 500, 1000, 2000, 5000},
	},
	[]string{"side"},
)

// NotificationFailures - количество неудачных отправок уведомлений
var NotificationFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "hyperhook",
		Subsystem: "relay",
		Name:      "notification_failures_total",
		Help:      "Total number of failed Discord notification sends",
	},
)
