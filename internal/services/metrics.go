package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// habitOps counts service operations by name and outcome.
	habitOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_operations_total",
			Help: "Total number of habit operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	// habitsStored tracks the number of habits currently held by the store.
	habitsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "habits_stored",
			Help: "Current number of stored habits.",
		},
	)
)

func init() {
	prometheus.MustRegister(habitOps, habitsStored)
}

// outcome maps an operation error to a bounded label value.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrHabitNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateName):
		return "conflict"
	default:
		return "error"
	}
}
