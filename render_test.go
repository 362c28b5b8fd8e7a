// SPDX-License-Identifier: EPL-2.0

package playsched

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ik5/playsched/audio"
	"github.com/ik5/playsched/engine"
	"github.com/ik5/playsched/formats/wav"
	"github.com/ik5/playsched/warp"
)

const testRate = 1000

// writeRamp writes a mono WAV whose frame i holds i/2000.
func writeRamp(t *testing.T, dir string, frames int) string {
	t.Helper()

	path := filepath.Join(dir, "ramp.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc, err := wav.NewEncoder(f, testRate, 1, 16)
	if err != nil {
		t.Fatal(err)
	}
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = rampValue(i)
	}
	if err := enc.WriteSamples(samples); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func rampValue(frame int) float32 {
	return float32(frame) / 2000
}

// readWAV decodes a whole mono file.
func readWAV(t *testing.T, path string) []float32 {
	t.Helper()

	src, f, err := OpenFile(DefaultRegistry(), path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	var out []float32
	buf := make([]float32, 256)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			break
		}
	}
	return out
}

func render(t *testing.T, cfg Config) ([]float32, Result) {
	t.Helper()

	out := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cfg.Rate = testRate
	cfg.Channels = 1
	cfg.Logger = zerolog.Nop()

	res, err := RenderWAV(context.Background(), f, cfg)
	if err != nil {
		t.Fatalf("RenderWAV() error = %v", err)
	}
	return readWAV(t, out), res
}

func TestRenderWAV(t *testing.T) {
	t.Parallel()

	in := writeRamp(t, t.TempDir(), 500)

	tests := []struct {
		name   string
		cfg    Config
		frames int
		want   func(i int) float32
	}{
		{
			name:   "forward",
			cfg:    Config{T0: 0.1, T1: 0.3},
			frames: 200,
			want:   func(i int) float32 { return rampValue(100 + i) },
		},
		{
			name:   "backward",
			cfg:    Config{T0: 0.3, T1: 0.1},
			frames: 200,
			want:   func(i int) float32 { return rampValue(299 - i) },
		},
		{
			name:   "looped",
			cfg:    Config{T0: 0, T1: 0.1, Loop: true, MaxSeconds: 0.25},
			frames: 250,
			want:   func(i int) float32 { return rampValue(i % 100) },
		},
		{
			name:   "limited",
			cfg:    Config{T0: 0, T1: 0.4, MaxSeconds: 0.05},
			frames: 50,
			want:   rampValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg
			cfg.Tracks = []Track{{Path: in, Gain: 1}}
			got, res := render(t, cfg)

			if res.Frames != int64(tt.frames) || len(got) != tt.frames {
				t.Fatalf("rendered %d frames, file has %d; want %d", res.Frames, len(got), tt.frames)
			}
			for i, v := range got {
				if want := tt.want(i); math.Abs(float64(v-want)) > 1e-3 {
					t.Fatalf("frame %d = %v, want %v", i, v, want)
				}
			}
		})
	}
}

func TestRenderWAV_Warped(t *testing.T) {
	t.Parallel()

	in := writeRamp(t, t.TempDir(), 500)
	metrics := engine.NewMetrics(nil)

	_, res := render(t, Config{
		T0:       0,
		T1:       0.4,
		Envelope: warp.Constant{Speed: 2},
		Tracks:   []Track{{Path: in, Gain: 1}},
		Metrics:  metrics,
	})

	// twice the speed, half the length
	if res.Frames != 200 {
		t.Errorf("rendered %d frames, want 200", res.Frames)
	}
	if res.Seconds != 0.2 {
		t.Errorf("Seconds = %v, want 0.2", res.Seconds)
	}
}

func TestRenderWAV_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeRamp(t, dir, 100)
	unknown := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unknown, []byte("la"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no tracks", Config{Rate: testRate, Channels: 1, T1: 1}, ErrNoTracks},
		{"bad format", Config{Channels: 1, T1: 1, Tracks: []Track{{Path: in}}}, ErrInvalidConfig},
		{"negative max", Config{Rate: testRate, Channels: 1, MaxSeconds: -1, Tracks: []Track{{Path: in}}}, ErrInvalidConfig},
		{"missing file", Config{Rate: testRate, Channels: 1, T1: 1, Tracks: []Track{{Path: filepath.Join(dir, "nope.wav")}}}, os.ErrNotExist},
		{"unknown extension", Config{Rate: testRate, Channels: 1, T1: 1, Tracks: []Track{{Path: unknown}}}, audio.ErrUnknownFormat},
		{"endless loop", Config{Rate: testRate, Channels: 1, T1: 0.1, Loop: true, Tracks: []Track{{Path: in, Gain: 1}}}, engine.ErrUnboundedRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			tt.cfg.Logger = zerolog.Nop()
			if _, err := RenderWAV(context.Background(), f, tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("RenderWAV() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	want := []string{"aif", "aiff", "mp3", "oga", "ogg", "wav"}
	got := DefaultRegistry().Formats()
	if len(got) != len(want) {
		t.Fatalf("Formats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Formats()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
