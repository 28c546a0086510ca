package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentineld_events_received",
	Help: "Number of gateway events received",
}, []string{"type"})

var eventsMalformed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sentineld_events_malformed",
	Help: "Number of gateway events that could not be decoded",
})

var policyWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentineld_policy_writes",
	Help: "Number of tenant policy writes via the admin API",
}, []string{"category"})
