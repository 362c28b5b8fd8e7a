// SPDX-License-Identifier: EPL-2.0

package schedule

import (
	"math"
	"time"
)

const (
	// DefaultSleepInterval is how long the producer waits between fetches.
	DefaultSleepInterval = 10 * time.Millisecond

	// DefaultPadFrames is one time queue grain (plus one frame) of trailing
	// silence, enough for the consumer to read the stamp that reaches T1.
	DefaultPadFrames = TimeQueueGrainSize + 1
)

// Policy directs which parts of the timeline to fetch and when playback ends.
//
// A Policy is created for one session and discarded at its end. Every method
// receives the Schedule it governs.
type Policy interface {
	// Initialize is called on the main goroutine before the stream starts.
	Initialize(s *Schedule, rate float64)

	// Finalize is called on the main goroutine after the stream stops or
	// fails to start.
	Finalize(s *Schedule)

	// NormalizeTrackTime returns the track time to display. Main goroutine.
	NormalizeTrackTime(s *Schedule) float64

	// AllowSeek reports whether repositioning is allowed during playback.
	// Consumer goroutine.
	AllowSeek(s *Schedule) bool

	// Done reports whether the track time has reached the end of playback
	// and outputFrames, the frames still buffered for output, are all
	// played. Consumer goroutine.
	Done(s *Schedule, outputFrames int) bool

	// SleepInterval is the producer's wait between fetches. Producer
	// goroutine.
	SleepInterval(s *Schedule) time.Duration

	// GetPlaybackSlice sizes the next fetch, never exceeding available
	// frames. Producer goroutine.
	GetPlaybackSlice(s *Schedule, available int) Slice

	// RepositionPlayback runs after each fetch and may restart the mixers.
	// It returns true when the producer should end the current fill cycle.
	// Producer goroutine.
	RepositionPlayback(s *Schedule, mixers []Mixer, frames, available int) bool

	// Looping reports whether the track time wraps at T1.
	Looping(s *Schedule) bool
}

// BasePolicy implements the default behaviour shared by every variant.
// Variants embed it and override what differs.
type BasePolicy struct {
	rate float64
}

func (p *BasePolicy) Initialize(_ *Schedule, rate float64) {
	p.rate = rate
}

func (p *BasePolicy) Finalize(*Schedule) {}

// Rate returns the sample rate given to Initialize.
func (p *BasePolicy) Rate() float64 {
	return p.rate
}

// NormalizeTrackTime clamps the current time into the region and, in cut
// preview, jumps over the removed gap.
func (p *BasePolicy) NormalizeTrackTime(s *Schedule) float64 {
	absolute := s.LimitTrackTime()

	if s.cutPreviewGapLen > 0 && absolute > s.cutPreviewGapStart {
		absolute += s.cutPreviewGapLen
	}

	return absolute
}

func (p *BasePolicy) AllowSeek(*Schedule) bool {
	return true
}

func (p *BasePolicy) Done(s *Schedule, outputFrames int) bool {
	diff := s.TrackTime() - s.t1
	if s.ReversedTime() {
		diff = -diff
	}
	return math.Floor(diff*p.rate+0.5) >= 0 && outputFrames == 0
}

func (p *BasePolicy) SleepInterval(*Schedule) time.Duration {
	return DefaultSleepInterval
}

func (p *BasePolicy) RepositionPlayback(*Schedule, []Mixer, int, int) bool {
	return false
}

func (p *BasePolicy) Looping(*Schedule) bool {
	return false
}

// StraightPolicy plays the region once.
type StraightPolicy struct {
	BasePolicy

	// PadFrames bounds the trailing silence produced past the end. Zero
	// selects DefaultPadFrames.
	PadFrames int
}

// NewStraightPolicy returns a StraightPolicy with the given pad; zero selects
// DefaultPadFrames.
func NewStraightPolicy(padFrames int) *StraightPolicy {
	return &StraightPolicy{PadFrames: padFrames}
}

// GetPlaybackSlice fetches all available frames until the real time left in
// the region runs out. The last fetch is padded with up to PadFrames of
// silence so the time queue consumer can reach its end condition.
func (p *StraightPolicy) GetPlaybackSlice(s *Schedule, available int) Slice {
	if p.rate <= 0 || available <= 0 {
		return Slice{}
	}

	remaining := s.RealTimeRemaining()
	frames, toProduce := available, available
	deltat := float64(available) / p.rate

	if deltat > remaining {
		pad := p.PadFrames
		if pad == 0 {
			pad = DefaultPadFrames
		}
		extra := math.Min(float64(pad)/p.rate, deltat-remaining)
		realTime := math.Max(0, remaining+extra)
		frames = toFrames(realTime, p.rate)
		toProduce = toFrames(remaining, p.rate)
		s.RealTimeAdvance(realTime)
	} else {
		s.RealTimeAdvance(deltat)
	}

	return NewSlice(available, frames, toProduce)
}

// fallbackPolicy answers for a Schedule with no published policy. It is never
// initialized, so it produces nothing.
var fallbackPolicy Policy = &StraightPolicy{}
