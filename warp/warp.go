// SPDX-License-Identifier: EPL-2.0

package warp

// Envelope is a speed curve over track time.
type Envelope interface {
	// IntegralOfInverse returns the real time needed to play [t0, t1].
	// The result is negated when t1 < t0.
	IntegralOfInverse(t0, t1 float64) float64

	// SolveIntegralOfInverse returns the track time reached after playing
	// area real seconds from t0. A negative area moves backwards.
	SolveIntegralOfInverse(t0, area float64) float64
}

// Mapper converts between track time and real time, honouring an optional
// Envelope. The zero value maps one to one.
type Mapper struct {
	Envelope Envelope
}

// ComputeWarpedLength returns the signed real duration of the unwarped
// interval [t0, t1].
func (m Mapper) ComputeWarpedLength(t0, t1 float64) float64 {
	if m.Envelope != nil {
		return m.Envelope.IntegralOfInverse(t0, t1)
	}
	return t1 - t0
}

// SolveWarpedLength returns the track time reached after length real seconds
// have elapsed from t0.
func (m Mapper) SolveWarpedLength(t0, length float64) float64 {
	if m.Envelope != nil {
		return m.Envelope.SolveIntegralOfInverse(t0, length)
	}
	return t0 + length
}

// Constant plays the whole timeline at a single speed factor.
type Constant struct {
	Speed float64
}

func (c Constant) IntegralOfInverse(t0, t1 float64) float64 {
	return (t1 - t0) / c.Speed
}

func (c Constant) SolveIntegralOfInverse(t0, area float64) float64 {
	return t0 + area*c.Speed
}
