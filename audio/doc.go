// SPDX-License-Identifier: EPL-2.0

// Package audio holds the sources the playback mixers read from.
//
// It contains:
//   - Source interface for audio input
//   - Seeker and Sized for sources that can be repositioned or measured
//   - Resampler for sample rate and speed conversion
//   - Remixer for channel mapping
//   - Format registry for decoder registration
//
// # Source Interface
//
// The Source interface is the foundation of audio processing:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// All audio decoders and processors implement this interface, allowing
// them to be chained together in processing pipelines.
//
// Sources that can seek also implement Seeker. The playback mixers rely on it
// to restart a loop and to follow a seek. Resampler and Remixer pass seeks
// through to their source.
//
// # Resampling
//
// The Resampler changes the sample rate of audio using cubic interpolation:
//
//	resampler := audio.NewResampler(source, 16000)
//	buf := make([]float32, 4096)
//	n, err := resampler.ReadSamples(buf)
//
// Resampling works for both upsampling and downsampling. SetSpeed plays the
// source faster or slower by the same mechanism.
//
// # Channel Mixing
//
// The Remixer maps a source onto another channel count. Down-mixing averages,
// up-mixing repeats channels:
//
//	stereo := audio.NewRemixer(source, 2)
//	mono := audio.NewMonoMixer(source)
//
// # Format Registry
//
// The registry allows dynamic decoder registration:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	src, err := registry.Decode("wav", file)
//
// Keys are case insensitive; callers usually key by file extension.
//
// # Samples
//
// Samples are interleaved float32 in [-1, 1]. ReadSamples returns io.EOF with
// or after the last samples; any other error ends the stream.
package audio
