package srs

import "math"

// nextEaseFactor applies the SM-2 ease update for a review of the given
// quality and clamps the result to the floor. There is no upper bound.
//
//	E' = E + (0.1 − (5−q) × (0.08 + (5−q) × 0.02))
func nextEaseFactor(ease float64, quality int, minEase float64) float64 {
	d := float64(5 - quality)
	next := ease + (0.1 - d*(0.08+d*0.02))
	if next < minEase {
		return minEase
	}
	return next
}

// nextInterval computes the new interval in days. Failing reviews
// (handled by the caller) never reach here. The first two consecutive
// successes use fixed intervals independent of ease; afterwards the
// interval grows multiplicatively, rounded half-up to whole days.
func nextInterval(intervalDays, repetitions int, ease float64, p Params) int {
	switch repetitions {
	case 0:
		return p.FirstInterval
	case 1:
		return p.SecondInterval
	default:
		return roundHalfUp(float64(intervalDays) * ease)
	}
}

// roundHalfUp rounds to the nearest integer with ties away from zero
// upward: 2.5 → 3. math.Round would also round 2.5 to 3, but it rounds
// −2.5 to −3; intervals are always positive so Floor(x+0.5) keeps the
// half-up contract explicit.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
