// SPDX-License-Identifier: EPL-2.0

// Package warp maps between track time and real time.
//
// Track time is a position on the edited timeline, in seconds. Real time is the
// amount of audio that actually elapses while that part of the timeline plays.
// The two are equal unless a speed envelope (a "time track") is applied, in
// which case a stretch of timeline played at speed s takes 1/s times as long.
//
// # Envelopes
//
// An Envelope answers two questions:
//
//	// How many real seconds does [t0, t1] take to play?
//	real := env.IntegralOfInverse(t0, t1)
//
//	// Starting at t0, where on the timeline are we after `real` seconds?
//	t1 := env.SolveIntegralOfInverse(t0, real)
//
// The two are inverses of each other. SpeedEnvelope is a bounded,
// piecewise-linear speed curve with closed form answers for both; Constant is a
// uniform speed factor.
//
// # Mapper
//
// Mapper wraps an optional Envelope. Without one, track time and real time are
// the same thing:
//
//	m := warp.Mapper{}
//	m.ComputeWarpedLength(2, 5) // 3
//	m.SolveWarpedLength(2, 3)   // 5
//
// Both directions are signed: a negative length walks the timeline backwards.
package warp
