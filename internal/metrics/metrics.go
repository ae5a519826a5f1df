// Package metrics содержит счётчики Prometheus для ключевых решений движка.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AccessDecisions считает решения проверки доступа по эффекту и причине.
var AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "access_decisions_total",
	Help: "Access evaluator decisions by effect and reason.",
}, []string{"effect", "reason"})

// Reconciliations считает результаты сверки платежей.
var Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payment_reconciliations_total",
	Help: "Payment reconciliation outcomes.",
}, []string{"result"})

// WebhookEvents считает принятые webhook-события по каналам.
var WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payment_webhook_events_total",
	Help: "Inbound payment webhook events by rail.",
}, []string{"rail"})

// UnknownProviderStatuses считает сигналы провайдера, не попавшие
// в словарь канала и отложенные для ручного разбора.
var UnknownProviderStatuses = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payment_unknown_provider_statuses_total",
	Help: "Provider statuses outside the rail vocabulary.",
}, []string{"rail"})
