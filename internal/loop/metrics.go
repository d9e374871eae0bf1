package loop

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSignalsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loop_signals_dropped_total",
		Help: "Worker signals not delivered to the dialogue machine",
	}, []string{"reason"})

	metricCommandsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loop_commands_sent_total",
		Help: "Commands sent to speech workers",
	}, []string{"type"})
)
