package spinglass

import (
	"fmt"
	"math"
)

// Schedule is a geometric annealing schedule from High down to Low
type Schedule struct {
	High       float64
	Low        float64
	Iterations int
}

// NewSchedule validates the temperature range and iteration budget
func NewSchedule(high, low float64, iterations int) (Schedule, error) {
	if math.IsNaN(high) || math.IsNaN(low) || low <= 0 || high < low || math.IsInf(high, 0) {
		return Schedule{}, fmt.Errorf("%w: temperature range must satisfy t_high >= t_low > 0, got (%g, %g)", ErrInvalidArgument, high, low)
	}
	if iterations < 0 {
		return Schedule{}, fmt.Errorf("%w: iteration count must be non-negative, got %d", ErrInvalidArgument, iterations)
	}
	return Schedule{High: high, Low: low, Iterations: iterations}, nil
}

// Temperature returns T(k) = High·(Low/High)^(k/(Iterations-1)).
// T(0) is High and T(Iterations-1) is Low.
func (s Schedule) Temperature(k int) float64 {
	if s.Iterations <= 1 || k <= 0 {
		return s.High
	}
	if k >= s.Iterations-1 {
		return s.Low
	}
	return s.High * math.Pow(s.Low/s.High, float64(k)/float64(s.Iterations-1))
}
