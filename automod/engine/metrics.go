package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "sentinel_event_duration_sec",
	Help: "Total duration of detection event processing",
}, []string{"type"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_event_processed",
	Help: "Number of events processed",
}, []string{"type"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_event_errors",
	Help: "Number of events which failed processing",
}, []string{"type"})

var decisionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_decisions",
	Help: "Number of detection decisions emitted",
}, []string{"reason", "action"})

var enforcementCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_enforcement_actions",
	Help: "Number of enforcement executions by outcome",
}, []string{"kind", "status"})

var noticeFailCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_notice_failures",
	Help: "Number of notice deliveries which failed",
}, []string{"channel"})

var guardToggleCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_guard_toggles",
	Help: "Number of guard state toggles",
}, []string{"guard", "state"})
