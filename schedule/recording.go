// SPDX-License-Identifier: EPL-2.0

package schedule

import "math"

// RecordingSchedule is the bookkeeping for recording while playing, as in a
// punch-in or overdub.
//
// The main goroutine fills it in before the session starts; afterwards only
// the producer touches Position and LatencyCorrected.
type RecordingSchedule struct {
	PreRoll           float64
	LatencyCorrection float64 // usually negative
	Duration          float64 // may be +Inf for open-ended recording

	// CrossfadeData holds, per channel, the existing audio to blend into the
	// start of the recording.
	CrossfadeData [][]float32

	Position         float64
	LatencyCorrected bool
}

// RecordingSplit says what to do with one batch of captured frames.
type RecordingSplit struct {
	Pad     int // silent frames to insert ahead of the batch
	Discard int // leading frames to throw away
	Keep    int // frames to keep after the discarded ones
}

func (r *RecordingSchedule) TotalCorrection() float64 {
	return r.LatencyCorrection - r.PreRoll
}

// Consumed returns the recorded time that counts towards Duration.
func (r *RecordingSchedule) Consumed() float64 {
	return math.Max(0, r.Position+r.TotalCorrection())
}

func (r *RecordingSchedule) ToConsume() float64 {
	return r.Duration - r.Consumed()
}

// ToDiscard returns how much captured time still precedes the real start.
func (r *RecordingSchedule) ToDiscard() float64 {
	return math.Max(0, -(r.Position + r.TotalCorrection()))
}

// Take splits frames freshly captured at rate into discarded latency, kept
// audio and, on the first call only, leading silence for a positive
// correction. Position advances past every captured frame. Producer only.
func (r *RecordingSchedule) Take(frames int, rate float64) RecordingSplit {
	var split RecordingSplit
	if frames < 0 || rate <= 0 {
		return split
	}

	if !r.LatencyCorrected {
		if c := r.TotalCorrection(); c > 0 {
			split.Pad = toFrames(c, rate)
		}
		r.LatencyCorrected = true
	}

	if d := r.ToDiscard(); d > 0 {
		split.Discard = min(frames, toFrames(d, rate))
		r.Position += float64(split.Discard) / rate
	}

	rest := frames - split.Discard
	split.Keep = rest
	if c := r.ToConsume(); !math.IsInf(c, 1) {
		split.Keep = min(rest, toFrames(c, rate))
	}
	r.Position += float64(rest) / rate

	return split
}

// Crossfade blends the interleaved samples, which start offset frames into the
// kept recording, from the crossfade data towards the new audio.
func (r *RecordingSchedule) Crossfade(samples []float32, channels, offset int) {
	if channels <= 0 {
		return
	}

	frames := len(samples) / channels
	for ch := 0; ch < channels && ch < len(r.CrossfadeData); ch++ {
		old := r.CrossfadeData[ch]
		n := len(old)
		for f := range frames {
			j := offset + f
			if j >= n {
				break
			}
			w := float32(j) / float32(n)
			i := f*channels + ch
			samples[i] = old[j]*(1-w) + samples[i]*w
		}
	}
}
