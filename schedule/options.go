// SPDX-License-Identifier: EPL-2.0

package schedule

import (
	"time"

	"github.com/ik5/playsched/warp"
)

// MinAllowedScrubSpeed is the slowest maximum speed a scrub may request.
const MinAllowedScrubSpeed = 0.01

// PlayMode is the kind of playback a session performs. It is chosen at Init and
// only changes again through ResetMode.
type PlayMode int32

const (
	PlayStraight PlayMode = iota
	PlayLooped
	PlayScrub
	PlayAtSpeed
	PlayKeyboardScrub
)

func (m PlayMode) String() string {
	switch m {
	case PlayStraight:
		return "straight"
	case PlayLooped:
		return "looped"
	case PlayScrub:
		return "scrub"
	case PlayAtSpeed:
		return "at-speed"
	case PlayKeyboardScrub:
		return "keyboard-scrub"
	default:
		return "unknown"
	}
}

// Options configures a session at Init.
type Options struct {
	// Envelope warps track time. It is ignored while recording.
	Envelope warp.Envelope

	PlayLooped bool

	// PolicyFactory, when set, takes priority over every other mode choice.
	PolicyFactory func(Options) Policy

	// CutPreviewGapStart and CutPreviewGapLen describe a region that was
	// removed for preview; displayed times past the gap jump over it.
	CutPreviewGapStart float64
	CutPreviewGapLen   float64

	// Scrubbing selects one of the interactive modes.
	Scrubbing *ScrubbingOptions

	// PadFrames is the trailing silence a straight play may add past the
	// end. Zero selects DefaultPadFrames.
	PadFrames int
}

// ScrubbingOptions configures scrub and play-at-speed sessions.
type ScrubbingOptions struct {
	MaxSpeed float64
	MinSpeed float64

	// Delay is the producer's sleep between fetches. Zero selects
	// DefaultSleepInterval.
	Delay time.Duration

	IsPlayingAtSpeed    bool
	IsKeyboardScrubbing bool
}
