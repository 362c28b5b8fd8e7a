// SPDX-License-Identifier: EPL-2.0

package schedule

import "time"

// ScrubbingPolicy serves the interactive modes: scrub, keyboard scrub and play
// at speed. The scrub speed is supplied to the TimeQueue by the caller; no
// real time is accounted against the region.
type ScrubbingPolicy struct {
	BasePolicy

	opts ScrubbingOptions
}

func NewScrubbingPolicy(opts ScrubbingOptions) *ScrubbingPolicy {
	return &ScrubbingPolicy{opts: opts}
}

// AllowSeek is false: the scrub itself decides the position.
func (p *ScrubbingPolicy) AllowSeek(*Schedule) bool {
	return false
}

// Done follows the default rule when playing at speed. A scrub only ends when
// it is stopped.
func (p *ScrubbingPolicy) Done(s *Schedule, outputFrames int) bool {
	if s.PlayingAtSpeed() {
		return p.BasePolicy.Done(s, outputFrames)
	}
	return false
}

func (p *ScrubbingPolicy) SleepInterval(s *Schedule) time.Duration {
	if p.opts.Delay > 0 {
		return p.opts.Delay
	}
	return p.BasePolicy.SleepInterval(s)
}

func (p *ScrubbingPolicy) GetPlaybackSlice(_ *Schedule, available int) Slice {
	if p.rate <= 0 {
		return Slice{}
	}
	return NewSlice(available, available, available)
}
