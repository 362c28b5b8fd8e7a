// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/ik5/playsched/internal/audiotest"
	"github.com/ik5/playsched/mix"
	"github.com/ik5/playsched/schedule"
)

func TestRender_StraightTrimmed(t *testing.T) {
	t.Parallel()

	var out collect
	metrics := NewMetrics(nil)
	s := newSession(t, Config{T1: 1, TrimPadding: true, Metrics: metrics}, rampMixer(t, 1000, 0))

	total, err := s.Render(context.Background(), 64, 0, out.sink)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if total != 1000 || len(out.samples) != 1000 {
		t.Fatalf("Render() = %d frames, %d samples; want 1000", total, len(out.samples))
	}
	for i, v := range out.samples {
		if v != float32(i) {
			t.Fatalf("sample %d = %v, want %d", i, v, i)
		}
	}
	if got := testutil.ToFloat64(metrics.FramesProduced); got != 1000 {
		t.Errorf("frames produced = %v, want 1000", got)
	}
}

func TestRender_StraightPlaysOutPadding(t *testing.T) {
	t.Parallel()

	var out collect
	s := newSession(t, Config{T1: 1}, rampMixer(t, 1000, 0))

	total, err := s.Render(context.Background(), 100, 0, out.sink)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !s.Done() {
		t.Error("Done() = false after render")
	}

	// The end is only seen once the consumer passes a time stamp beyond T1.
	if total < schedule.TimeQueueGrainSize || total > 1000+schedule.DefaultPadFrames {
		t.Errorf("Render() = %d frames, want between %d and %d",
			total, schedule.TimeQueueGrainSize, 1000+schedule.DefaultPadFrames)
	}
	for i, v := range out.samples {
		want := float32(0)
		if i < 1000 {
			want = float32(i)
		}
		if v != want {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestRender_Reversed(t *testing.T) {
	t.Parallel()

	var out collect
	m, err := mix.New(mix.Config{
		Rate:     testRate,
		Channels: 1,
		Start:    0.1,
		Reverse:  true,
		Logger:   zerolog.Nop(),
	}, mix.Track{Source: audiotest.NewRampSource(testRate, 1, 1000, 1), Gain: 1})
	if err != nil {
		t.Fatalf("mix.New() error = %v", err)
	}
	s := newSession(t, Config{T0: 0.1, T1: 0, TrimPadding: true}, m)

	total, err := s.Render(context.Background(), 32, 0, out.sink)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if total != 100 {
		t.Fatalf("Render() = %d frames, want 100", total)
	}
	for i, v := range out.samples {
		if want := float32(99 - i); v != want {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
	if !s.Schedule().ReversedTime() {
		t.Error("ReversedTime() = false")
	}
}

func TestRender_Looping(t *testing.T) {
	t.Parallel()

	var out collect
	metrics := NewMetrics(nil)
	s := newSession(t, Config{
		T1:           0.1,
		BufferFrames: 64,
		Options:      schedule.Options{PlayLooped: true},
		Metrics:      metrics,
	}, rampMixer(t, 1000, 0))

	total, err := s.Render(context.Background(), 50, 250, out.sink)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if total != 250 {
		t.Fatalf("Render() = %d frames, want 250", total)
	}
	for i, v := range out.samples {
		if want := float32(i % 100); v != want {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
	if got := testutil.ToFloat64(metrics.LoopRestarts); got < 2 {
		t.Errorf("loop restarts = %v, want at least 2", got)
	}
}

func TestRender_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       Config
		block     int
		maxFrames int64
		want      error
	}{
		{
			name:  "zero block",
			cfg:   Config{T1: 1},
			block: 0,
			want:  ErrInvalidConfig,
		},
		{
			name:  "unbounded loop",
			cfg:   Config{T1: 1, Options: schedule.Options{PlayLooped: true}},
			block: 64,
			want:  ErrUnboundedRender,
		},
		{
			name: "unbounded scrub",
			cfg: Config{T1: 1, Options: schedule.Options{
				Scrubbing: &schedule.ScrubbingOptions{MaxSpeed: 1},
			}},
			block: 64,
			want:  ErrUnboundedRender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newSession(t, tt.cfg, rampMixer(t, 1000, 0))
			_, err := s.Render(context.Background(), tt.block, tt.maxFrames, func([]float32) error { return nil })
			if !errors.Is(err, tt.want) {
				t.Errorf("Render() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRender_SinkError(t *testing.T) {
	t.Parallel()

	errSink := errors.New("disk full")
	s := newSession(t, Config{T1: 1}, rampMixer(t, 1000, 0))

	_, err := s.Render(context.Background(), 64, 0, func([]float32) error { return errSink })
	if !errors.Is(err, errSink) {
		t.Errorf("Render() error = %v, want %v", err, errSink)
	}
}

func TestRender_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newSession(t, Config{T1: 1}, rampMixer(t, 1000, 0))
	_, err := s.Render(ctx, 64, 0, func([]float32) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want %v", err, context.Canceled)
	}
}

func TestNewMetrics_Register(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Seeks.WithLabelValues("applied").Inc()

	if n := testutil.CollectAndCount(m.Seeks); n != 1 {
		t.Errorf("seek series = %d, want 1", n)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Error("nothing registered")
	}
}
