// SPDX-License-Identifier: EPL-2.0

package schedule

import "math"

// Slice describes one fetch of frames for the output buffer. The first
// ToProduce frames carry mixed audio; the rest of Frames is trailing silence.
type Slice struct {
	Frames    int // total frames to write to the buffer
	ToProduce int // not more than Frames
}

// NewSlice builds a Slice that satisfies ToProduce <= Frames <= available.
func NewSlice(available, frames, toProduce int) Slice {
	available = max(available, 0)
	frames = min(max(frames, 0), available)
	return Slice{
		Frames:    frames,
		ToProduce: min(max(toProduce, 0), frames),
	}
}

// Silence reports whether the slice carries no mixed audio at all.
func (s Slice) Silence() bool {
	return s.ToProduce == 0 && s.Frames > 0
}

// toFrames converts seconds to the nearest whole number of frames, never
// negative.
func toFrames(seconds, rate float64) int {
	f := math.Floor(seconds*rate + 0.5)
	if !(f > 0) {
		return 0
	}
	return int(f)
}
