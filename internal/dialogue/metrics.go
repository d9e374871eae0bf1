package dialogue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_state_transitions_total",
		Help: "Dialogue state transitions",
	}, []string{"from", "to"})

	metricIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_intents_total",
		Help: "Classified player intents",
	}, []string{"intent"})

	metricReprompts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_reprompts_total",
		Help: "Re-prompts after unrecognised input or silence",
	}, []string{"reason"})

	metricRounds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_rounds_total",
		Help: "Finished rounds by outcome",
	}, []string{"outcome"})

	metricRoundsAborted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_rounds_aborted_total",
		Help: "Rounds aborted by an invariant violation",
	})
)
