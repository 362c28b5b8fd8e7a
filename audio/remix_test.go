// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"testing"

	"github.com/ik5/playsched/internal/audiotest"
)

func channelSource(channels int, values ...float32) *audiotest.MockSource {
	return audiotest.NewMockSource(44100, channels, 10, func(_ int, ch int) float32 {
		return values[ch]
	})
}

func TestRemixer_ReadSamples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   *audiotest.MockSource
		out   int
		frame []float32
	}{
		{"passthrough", channelSource(2, 0.25, -0.25), 2, []float32{0.25, -0.25}},
		{"stereo to mono", channelSource(2, 0.2, 0.6), 1, []float32{0.4}},
		{"quad to mono", channelSource(4, 0.1, 0.2, 0.3, 0.4), 1, []float32{0.25}},
		{"quad to stereo", channelSource(4, 0.1, 0.2, 0.3, 0.4), 2, []float32{0.2, 0.3}},
		{"three to stereo", channelSource(3, 0.3, 0.5, 0.9), 2, []float32{0.6, 0.5}},
		{"mono to stereo", channelSource(1, 0.7), 2, []float32{0.7, 0.7}},
		{"stereo to quad", channelSource(2, 0.1, 0.9), 4, []float32{0.1, 0.9, 0.1, 0.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewRemixer(tt.src, tt.out)
			if m.Channels() != tt.out {
				t.Fatalf("Channels() = %d, want %d", m.Channels(), tt.out)
			}

			dst := make([]float32, 4*tt.out)
			n, err := m.ReadSamples(dst)
			if err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}
			if n != len(dst) {
				t.Fatalf("ReadSamples() = %d, want %d", n, len(dst))
			}

			for f := range 4 {
				for c, want := range tt.frame {
					got := dst[f*tt.out+c]
					if diff := got - want; diff > 1e-6 || diff < -1e-6 {
						t.Errorf("frame %d channel %d = %v, want %v", f, c, got, want)
					}
				}
			}
		})
	}
}

func TestRemixer_EOFAndShortRead(t *testing.T) {
	t.Parallel()

	m := NewMonoMixer(channelSource(2, 1, 1))
	dst := make([]float32, 16)

	n, err := m.ReadSamples(dst)
	if n != 10 {
		t.Errorf("ReadSamples() = %d, want the 10 remaining frames", n)
	}
	if err == nil {
		t.Error("ReadSamples() at the end of the source returned no EOF")
	}
}

func TestRemixer_InvalidSizes(t *testing.T) {
	t.Parallel()

	if _, err := NewRemixer(channelSource(1, 0), 2).ReadSamples(make([]float32, 3)); !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("odd dst error = %v, want ErrInvalidDstSize", err)
	}
	if _, err := NewRemixer(channelSource(1, 0), 0).ReadSamples(make([]float32, 2)); !errors.Is(err, ErrInvalidChannels) {
		t.Errorf("zero channels error = %v, want ErrInvalidChannels", err)
	}
}

func TestRemixer_SeekAndSize(t *testing.T) {
	t.Parallel()

	src := channelSource(2, 0, 0)
	m := NewMonoMixer(src)

	if err := m.SeekFrame(7); err != nil {
		t.Fatalf("SeekFrame() error = %v", err)
	}
	if src.Position() != 7 {
		t.Errorf("source position = %d, want 7", src.Position())
	}
	if m.Frames() != 10 {
		t.Errorf("Frames() = %d, want 10", m.Frames())
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !src.Closed() {
		t.Error("Close() did not close the source")
	}
}

func BenchmarkRemixer_StereoToMono(b *testing.B) {
	src := audiotest.NewSineSource(44100, 2, 1<<30, 440)
	m := NewMonoMixer(src)
	dst := make([]float32, 1024)

	b.ReportAllocs()

	for b.Loop() {
		_, _ = m.ReadSamples(dst)
	}
}
