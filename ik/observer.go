package ik

import (
	"time"

	"go.viam.com/gdik/logging"
)

// Progress is a snapshot of a search, taken once per loop pass.
type Progress struct {
	Iteration int
	Restarts  int
	// Active is the current candidate. It must not be modified.
	Active   []float64
	Merit    float64
	GoalCost float64
	Damping  float64
	Elapsed  time.Duration
}

// IterationObserver is called synchronously on the searching goroutine. It must not block.
type IterationObserver func(Progress)

// LoggingObserver logs every progress snapshot at debug level.
func LoggingObserver(logger logging.Logger) IterationObserver {
	return func(p Progress) {
		logger.Debugw("ik iteration",
			"iteration", p.Iteration,
			"restarts", p.Restarts,
			"merit", p.Merit,
			"goal_cost", p.GoalCost,
			"damping", p.Damping,
			"elapsed", p.Elapsed,
		)
	}
}
