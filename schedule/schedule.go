// SPDX-License-Identifier: EPL-2.0

package schedule

import (
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ik5/playsched/warp"
)

// degenerateRegion is the shortest region AdvancedTrackTime will move through.
const degenerateRegion = 1e-9

type policyState int32

const (
	policyUnset policyState = iota
	policyReady
)

// Schedule is the state of one playback session: the region being played,
// the current position and the real-time accounting used to size fetches.
type Schedule struct {
	// TimeQueue is owned by the schedule; see its own documentation for
	// which goroutine may call what.
	TimeQueue TimeQueue

	t0, t1 float64

	// time is the current track time as float64 bits. Written by the
	// producer and consumer, read by the main goroutine for display.
	time atomic.Uint64

	// warpedElapsed is the real time played in the current pass, starting at
	// zero and wrapping back to zero on every loop. Producer only.
	warpedElapsed float64

	// warpedLength is the real length of one pass, computed once at Init.
	warpedLength float64

	mapper warp.Mapper
	mode   atomic.Int32

	cutPreviewGapStart float64
	cutPreviewGapLen   float64

	policy      Policy
	policyState atomic.Int32

	logger zerolog.Logger
}

// NewSchedule returns an idle schedule.
func NewSchedule(logger zerolog.Logger) *Schedule {
	return &Schedule{
		logger: logger.With().Str("component", "schedule").Logger(),
	}
}

// Init prepares the schedule for a session over [t0, t1]. rec is non-nil when
// recording runs alongside playback.
func (s *Schedule) Init(t0, t1 float64, opts Options, rec *RecordingSchedule) {
	s.policyState.Store(int32(policyUnset))
	s.policy = nil

	// A time warp would defeat the purpose of recording in sync with the
	// existing audio, so it is dropped quietly.
	if rec != nil {
		s.mapper = warp.Mapper{}
	} else {
		s.mapper = warp.Mapper{Envelope: opts.Envelope}
	}

	s.t0 = t0
	s.t1 = t1
	if rec != nil {
		s.t0 -= rec.PreRoll
		// Don't finish before the requested length has been recorded.
		s.t1 -= rec.LatencyCorrection
	}

	s.SetTrackTime(s.t0)

	mode := PlayStraight
	var policy Policy
	switch {
	case opts.PolicyFactory != nil:
		policy = opts.PolicyFactory(opts)
	case opts.PlayLooped:
		mode = PlayLooped
		policy = NewLoopingPolicy()
	}

	s.cutPreviewGapStart = opts.CutPreviewGapStart
	s.cutPreviewGapLen = opts.CutPreviewGapLen

	if opts.Scrubbing != nil {
		if scrubMode, ok := s.scrubMode(opts, rec); ok {
			mode = scrubMode
			if policy == nil {
				policy = NewScrubbingPolicy(*opts.Scrubbing)
			}
		}
	}

	if policy == nil {
		policy = NewStraightPolicy(opts.PadFrames)
	}
	s.mode.Store(int32(mode))

	s.warpedElapsed = 0
	if s.Scrubbing() {
		s.warpedLength = 0
	} else {
		s.warpedLength = s.RealDuration(s.t1)
	}

	s.policy = policy
	s.policyState.Store(int32(policyReady))

	s.logger.Debug().
		Float64("t0", s.t0).
		Float64("t1", s.t1).
		Stringer("mode", mode).
		Float64("warped_length", s.warpedLength).
		Bool("warped", s.mapper.Envelope != nil).
		Bool("recording", rec != nil).
		Msg("schedule initialized")
}

// scrubMode validates scrubbing options. Scrubbing cannot be combined with
// recording, looping or a time warp.
func (s *Schedule) scrubMode(opts Options, rec *RecordingSchedule) (PlayMode, bool) {
	scrub := opts.Scrubbing

	var reason string
	switch {
	case rec != nil:
		reason = "recording"
	case opts.PlayLooped:
		reason = "looping"
	case s.mapper.Envelope != nil:
		reason = "time warp"
	case scrub.MaxSpeed < MinAllowedScrubSpeed:
		reason = "max speed too low"
	}
	if reason != "" {
		s.logger.Warn().Str("reason", reason).Msg("scrubbing rejected")
		return PlayStraight, false
	}

	switch {
	case scrub.IsPlayingAtSpeed:
		return PlayAtSpeed, true
	case scrub.IsKeyboardScrubbing:
		return PlayKeyboardScrub, true
	default:
		return PlayScrub, true
	}
}

// Policy returns the session's policy, or a fallback that produces nothing if
// none has been published.
func (s *Schedule) Policy() Policy {
	if policyState(s.policyState.Load()) == policyReady && s.policy != nil {
		return s.policy
	}
	return fallbackPolicy
}

// ResetMode returns to straight mode and withdraws the policy, ready for the
// next Init.
func (s *Schedule) ResetMode() {
	s.mode.Store(int32(PlayStraight))
	s.policyState.Store(int32(policyUnset))
}

func (s *Schedule) Mode() PlayMode {
	return PlayMode(s.mode.Load())
}

func (s *Schedule) Scrubbing() bool {
	m := s.Mode()
	return m == PlayScrub || m == PlayKeyboardScrub
}

func (s *Schedule) PlayingAtSpeed() bool {
	return s.Mode() == PlayAtSpeed
}

func (s *Schedule) Interactive() bool {
	return s.Scrubbing() || s.PlayingAtSpeed()
}

func (s *Schedule) T0() float64 { return s.t0 }
func (s *Schedule) T1() float64 { return s.t1 }

// CutPreviewGap returns the start and length of the cut-preview gap.
func (s *Schedule) CutPreviewGap() (start, length float64) {
	return s.cutPreviewGapStart, s.cutPreviewGapLen
}

// Envelope returns the time warp in use, if any.
func (s *Schedule) Envelope() warp.Envelope {
	return s.mapper.Envelope
}

// ReversedTime reports whether the region plays backwards.
func (s *Schedule) ReversedTime() bool {
	return s.t1 < s.t0
}

// TrackTime returns the current track time, unadjusted. It is approximate and
// meant for display.
func (s *Schedule) TrackTime() float64 {
	return math.Float64frombits(s.time.Load())
}

func (s *Schedule) SetTrackTime(t float64) {
	s.time.Store(math.Float64bits(t))
}

// ClampTrackTime limits t to the region without wrapping.
func (s *Schedule) ClampTrackTime(t float64) float64 {
	if s.ReversedTime() {
		return math.Max(s.t1, math.Min(s.t0, t))
	}
	return math.Max(s.t0, math.Min(s.t1, t))
}

// LimitTrackTime returns the current track time clamped to the region. The
// stored time is left alone.
func (s *Schedule) LimitTrackTime() float64 {
	return s.ClampTrackTime(s.TrackTime())
}

// Overruns reports whether t has reached T1, or passed it in the direction of
// play.
func (s *Schedule) Overruns(t float64) bool {
	if s.ReversedTime() {
		return t <= s.t1
	}
	return t >= s.t1
}

// ComputeWarpedLength returns the signed real duration of [t0, t1].
func (s *Schedule) ComputeWarpedLength(t0, t1 float64) float64 {
	return s.mapper.ComputeWarpedLength(t0, t1)
}

// SolveWarpedLength returns the track time reached length real seconds after t0.
func (s *Schedule) SolveWarpedLength(t0, length float64) float64 {
	return s.mapper.SolveWarpedLength(t0, length)
}

// AdvancedTrackTime returns the track time realElapsed real seconds after t,
// wrapping into the region when looping.
//
// speed scales the advance when there is no time warp. With a warp it must be
// 1; the warp already decides the speed.
func (s *Schedule) AdvancedTrackTime(t, realElapsed, speed float64) float64 {
	looping := s.Policy().Looping(s)

	if s.ReversedTime() {
		realElapsed = -realElapsed
	}

	// A region this short would never be left by the loops below.
	if math.Abs(s.t0-s.t1) < degenerateRegion {
		return s.t0
	}

	if s.mapper.Envelope == nil {
		t += realElapsed * math.Abs(speed)
		if looping {
			for s.Overruns(t) {
				t -= s.t1 - s.t0
			}
		}
		return t
	}

	var total float64
	foundTotal := false
	for {
		old := t
		if foundTotal && math.Abs(realElapsed) > math.Abs(total) {
			// a whole pass or more is left; skip the solve
			t = s.t1
		} else {
			t = s.SolveWarpedLength(t, realElapsed)
		}

		if !looping || !s.Overruns(t) {
			return t
		}

		// Only the part of the warp inside the loop counts, so deduct what
		// was played up to T1 and carry on from T0.
		var delta float64
		if foundTotal && old == s.t0 {
			delta = total
		} else {
			delta = s.ComputeWarpedLength(old, s.t1)
			if old == s.t0 {
				foundTotal, total = true, delta
			}
		}
		realElapsed -= delta
		t = s.t0
	}
}

// RealDuration returns the real time between T0 and t, never negative.
func (s *Schedule) RealDuration(t float64) float64 {
	return math.Abs(s.ComputeWarpedLength(s.t0, t))
}

// RealTimeRemaining returns the real time left in the current pass.
func (s *Schedule) RealTimeRemaining() float64 {
	return s.warpedLength - s.warpedElapsed
}

// WarpedLength returns the real length of one pass.
func (s *Schedule) WarpedLength() float64 {
	return s.warpedLength
}

// RealTimeAdvance adds increment to the real time played. Producer only.
func (s *Schedule) RealTimeAdvance(increment float64) {
	s.warpedElapsed += increment
}

// RealTimeInit sets the real time played as if the pass had started at T0 and
// reached t, for starting or seeking mid-region. Producer only.
func (s *Schedule) RealTimeInit(t float64) {
	if s.Scrubbing() {
		s.warpedElapsed = 0
		return
	}
	s.warpedElapsed = s.RealDuration(t)
}

// RealTimeRestart starts a new pass. Producer only.
func (s *Schedule) RealTimeRestart() {
	s.warpedElapsed = 0
}
