// SPDX-License-Identifier: EPL-2.0

package schedule

// Mixer pulls mixed track audio for playback.
//
// Mixers are driven by the producer goroutine. The schedule itself only ever
// calls Restart, when a looping pass wraps around.
type Mixer interface {
	// Restart rewinds to the mixer's configured start time.
	Restart()

	// Process mixes up to frames frames and returns how many were produced.
	Process(frames int) (int, error)
}
