// SPDX-License-Identifier: EPL-2.0

package schedule

import (
	"testing"

	"github.com/rs/zerolog"
)

// mockMixer counts restarts and produces every frame asked for.
type mockMixer struct {
	restarts int
	frames   int
}

func (m *mockMixer) Restart() {
	m.restarts++
}

func (m *mockMixer) Process(frames int) (int, error) {
	m.frames += frames
	return frames, nil
}

// newTestSchedule returns an initialized schedule whose policy runs at rate.
func newTestSchedule(t testing.TB, t0, t1 float64, opts Options, rate float64) *Schedule {
	t.Helper()

	s := NewSchedule(zerolog.Nop())
	s.Init(t0, t1, opts, nil)
	s.Policy().Initialize(s, rate)
	return s
}
