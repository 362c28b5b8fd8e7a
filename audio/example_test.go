// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"
	"io"

	"github.com/ik5/playsched/audio"
	"github.com/ik5/playsched/internal/audiotest"
)

// Example_resampler demonstrates how to use the Resampler to change sample rates.
func Example_resampler() {
	// One second of a 440 Hz tone at 44.1kHz
	source := audiotest.NewSineSource(44100, 1, 44100, 440.0)

	resampler := audio.NewResampler(source, 16000)

	fmt.Printf("Output sample rate: %d Hz\n", resampler.SampleRate())
	fmt.Printf("Channels: %d\n", resampler.Channels())

	buf := make([]float32, 4096)
	totalSamples := 0

	for {
		n, err := resampler.ReadSamples(buf)
		totalSamples += n

		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}

	fmt.Printf("Total samples read: %d\n", totalSamples)
	// Output:
	// Output sample rate: 16000 Hz
	// Channels: 1
	// Total samples read: 16000
}

// Example_remixer converts stereo to mono and back.
func Example_remixer() {
	source := audiotest.NewMockSource(16000, 2, 100, func(_ int, ch int) float32 {
		return float32(ch) // left 0, right 1
	})

	mono := audio.NewMonoMixer(source)
	stereo := audio.NewRemixer(mono, 2)

	buf := make([]float32, 4)
	n, _ := stereo.ReadSamples(buf)

	fmt.Printf("Channels: %d -> %d -> %d\n", source.Channels(), mono.Channels(), stereo.Channels())
	fmt.Println(n, buf)
	// Output:
	// Channels: 2 -> 1 -> 2
	// 4 [0.5 0.5 0.5 0.5]
}

// Example_seek restarts a resampled source from a given output frame.
func Example_seek() {
	source := audiotest.NewRampSource(8000, 1, 8000, 1)
	resampler := audio.NewResampler(source, 8000)

	buf := make([]float32, 3)
	_, _ = resampler.ReadSamples(buf)
	fmt.Println(buf)

	if err := resampler.SeekFrame(4000); err != nil {
		fmt.Println("seek:", err)
		return
	}
	_, _ = resampler.ReadSamples(buf)
	fmt.Println(buf)
	// Output:
	// [0 1 2]
	// [4000 4001 4002]
}

// Example_registry shows decoding by format key.
func Example_registry() {
	registry := audio.NewRegistry()
	registry.Register("raw", rawDecoder{})

	_, err := registry.Decode("flac", nil)
	fmt.Println(err)

	src, err := registry.Decode("RAW", nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(registry.Formats(), src.SampleRate())
	// Output:
	// unknown audio format: "flac"
	// [raw] 8000
}

type rawDecoder struct{}

func (rawDecoder) Decode(io.Reader) (audio.Source, error) {
	return audiotest.NewSilentSource(8000, 1, 8), nil
}
