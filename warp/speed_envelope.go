// SPDX-License-Identifier: EPL-2.0

package warp

import (
	"fmt"
	"math"
	"sort"
)

// Point is one control point of a SpeedEnvelope.
type Point struct {
	T     float64 `yaml:"t"`
	Speed float64 `yaml:"speed"`
}

// Bounds limits the speeds a SpeedEnvelope may take.
type Bounds struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"` // speed used when there are no points
}

// DefaultBounds allows anything from 1% to 100x, at unity when empty.
var DefaultBounds = Bounds{Min: 0.01, Max: 100, Default: 1}

// SpeedEnvelope is a bounded speed curve, linear between control points and
// constant before the first and after the last one.
//
// For a linear segment s(x) = s0 + k*(x - a) the integral of 1/s is
// ln(s(b)/s(a))/k, which has a closed form inverse, so both directions are
// exact up to rounding.
type SpeedEnvelope struct {
	points []Point
	bounds Bounds
}

// NewSpeedEnvelope validates points and bounds and clamps every speed into
// bounds. A zero Bounds value selects DefaultBounds.
func NewSpeedEnvelope(points []Point, bounds Bounds) (*SpeedEnvelope, error) {
	if bounds == (Bounds{}) {
		bounds = DefaultBounds
	}
	if bounds.Default == 0 {
		bounds.Default = 1
	}
	if bounds.Min <= 0 || bounds.Max <= 0 {
		return nil, ErrNonPositiveSpeed
	}
	if bounds.Min > bounds.Max {
		return nil, ErrInvertedBounds
	}

	pts := make([]Point, len(points))
	for i, p := range points {
		if i > 0 && !(p.T > points[i-1].T) {
			return nil, fmt.Errorf("point %d at %v: %w", i, p.T, ErrUnsortedPoints)
		}
		pts[i] = Point{T: p.T, Speed: clamp(p.Speed, bounds.Min, bounds.Max)}
	}

	return &SpeedEnvelope{
		points: pts,
		bounds: Bounds{
			Min:     bounds.Min,
			Max:     bounds.Max,
			Default: clamp(bounds.Default, bounds.Min, bounds.Max),
		},
	}, nil
}

// Points returns a copy of the clamped control points.
func (e *SpeedEnvelope) Points() []Point {
	return append([]Point(nil), e.points...)
}

// SpeedAt returns the playback speed at track time t.
func (e *SpeedEnvelope) SpeedAt(t float64) float64 {
	n := len(e.points)
	switch {
	case n == 0:
		return e.bounds.Default
	case t <= e.points[0].T:
		return e.points[0].Speed
	case t >= e.points[n-1].T:
		return e.points[n-1].Speed
	}

	// first point strictly after t
	i := sort.Search(n, func(i int) bool { return e.points[i].T > t })
	a, b := e.points[i-1], e.points[i]
	frac := (t - a.T) / (b.T - a.T)
	return a.Speed + frac*(b.Speed-a.Speed)
}

func (e *SpeedEnvelope) IntegralOfInverse(t0, t1 float64) float64 {
	if t1 < t0 {
		return -e.integral(t1, t0)
	}
	return e.integral(t0, t1)
}

func (e *SpeedEnvelope) SolveIntegralOfInverse(t0, area float64) float64 {
	if area < 0 {
		return e.solveBackward(t0, -area)
	}
	return e.solveForward(t0, area)
}

func (e *SpeedEnvelope) integral(a, b float64) float64 {
	total := 0.0
	for cur := a; cur < b; {
		end := math.Min(e.nextBreak(cur), b)
		total += segmentArea(end-cur, e.SpeedAt(cur), e.SpeedAt(end))
		cur = end
	}
	return total
}

func (e *SpeedEnvelope) solveForward(t0, area float64) float64 {
	cur := t0
	for {
		next := e.nextBreak(cur)
		s0 := e.SpeedAt(cur)
		if math.IsInf(next, 1) {
			return cur + area*s0
		}

		s1 := e.SpeedAt(next)
		a := segmentArea(next-cur, s0, s1)
		if a >= area {
			k := (s1 - s0) / (next - cur)
			if k == 0 {
				return cur + area*s0
			}
			return cur + s0*math.Expm1(k*area)/k
		}
		area -= a
		cur = next
	}
}

func (e *SpeedEnvelope) solveBackward(t0, area float64) float64 {
	cur := t0
	for {
		prev := e.prevBreak(cur)
		s1 := e.SpeedAt(cur)
		if math.IsInf(prev, -1) {
			return cur - area*s1
		}

		s0 := e.SpeedAt(prev)
		a := segmentArea(cur-prev, s0, s1)
		if a >= area {
			k := (s1 - s0) / (cur - prev)
			if k == 0 {
				return cur - area*s1
			}
			return cur + s1*math.Expm1(-k*area)/k
		}
		area -= a
		cur = prev
	}
}

// nextBreak returns the first control point time strictly after t, or +Inf.
func (e *SpeedEnvelope) nextBreak(t float64) float64 {
	i := sort.Search(len(e.points), func(i int) bool { return e.points[i].T > t })
	if i == len(e.points) {
		return math.Inf(1)
	}
	return e.points[i].T
}

// prevBreak returns the last control point time strictly before t, or -Inf.
func (e *SpeedEnvelope) prevBreak(t float64) float64 {
	i := sort.Search(len(e.points), func(i int) bool { return e.points[i].T >= t })
	if i == 0 {
		return math.Inf(-1)
	}
	return e.points[i-1].T
}

// segmentArea integrates 1/s over a segment of length dt whose speed moves
// linearly from s0 to s1.
func segmentArea(dt, s0, s1 float64) float64 {
	ds := s1 - s0
	if ds == 0 {
		return dt / s0
	}
	return dt * math.Log1p(ds/s0) / ds
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
