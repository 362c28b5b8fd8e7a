// SPDX-License-Identifier: EPL-2.0

package playsched

import (
	"math"

	"github.com/ik5/playsched/warp"
)

// TimePoint pairs a track time with the real time it is reached after
// starting at the region's start.
type TimePoint struct {
	Track float64
	Real  float64
}

// Timeline samples the warp every step seconds of track time from t0 to t1,
// always including t1. A reversed region is walked backwards. env may be nil.
func Timeline(env warp.Envelope, t0, t1, step float64) []TimePoint {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil
	}

	m := warp.Mapper{Envelope: env}
	dir := 1.0
	if t1 < t0 {
		dir = -1
	}

	n := int(math.Floor(math.Abs(t1-t0)/step + 1e-9))
	points := make([]TimePoint, 0, n+2)
	for i := range n + 1 {
		t := t0 + dir*float64(i)*step
		points = append(points, TimePoint{Track: t, Real: math.Abs(m.ComputeWarpedLength(t0, t))})
	}
	if last := points[len(points)-1].Track; last != t1 {
		points = append(points, TimePoint{Track: t1, Real: math.Abs(m.ComputeWarpedLength(t0, t1))})
	}
	return points
}

// RealLength returns how long one pass over [t0, t1] takes under env.
func RealLength(env warp.Envelope, t0, t1 float64) float64 {
	return math.Abs(warp.Mapper{Envelope: env}.ComputeWarpedLength(t0, t1))
}
