// SPDX-License-Identifier: EPL-2.0

package schedule

// LoopingPolicy plays the region over and over until stopped.
type LoopingPolicy struct {
	BasePolicy
}

func NewLoopingPolicy() *LoopingPolicy {
	return &LoopingPolicy{}
}

// Done is never true; a loop ends only when the session is stopped.
func (p *LoopingPolicy) Done(*Schedule, int) bool {
	return false
}

// GetPlaybackSlice clips the fetch exactly at the end of the pass and leaves
// the wrap around to RepositionPlayback. When less than one frame of the pass
// is left, which only happens before a restart or for a region shorter than
// a frame, it fills the whole buffer with silence so playback keeps moving.
func (p *LoopingPolicy) GetPlaybackSlice(s *Schedule, available int) Slice {
	if p.rate <= 0 || available <= 0 {
		return Slice{}
	}

	remaining := s.RealTimeRemaining()
	if toFrames(remaining, p.rate) == 0 {
		return NewSlice(available, available, 0)
	}

	frames := available
	deltat := float64(available) / p.rate

	if deltat > remaining {
		frames = toFrames(remaining, p.rate)
		s.RealTimeAdvance(remaining)
	} else {
		s.RealTimeAdvance(deltat)
	}

	return NewSlice(available, frames, frames)
}

// RepositionPlayback restarts every mixer and the real-time accounting once a
// pass is used up.
func (p *LoopingPolicy) RepositionPlayback(s *Schedule, mixers []Mixer, _, _ int) bool {
	if toFrames(s.RealTimeRemaining(), p.rate) > 0 {
		return false
	}

	for _, m := range mixers {
		m.Restart()
	}
	s.RealTimeRestart()

	return false
}

func (p *LoopingPolicy) Looping(*Schedule) bool {
	return true
}
