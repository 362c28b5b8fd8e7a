// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/playsched/internal/pcm"
)

// Encoder writes interleaved float32 samples as an integer PCM WAV file.
// The header is finalized by Close, which needs to seek back in w.
type Encoder struct {
	enc      *gowav.Encoder
	channels int
	bitDepth int
	buf      *goaudio.IntBuffer
	frames   int64
}

// NewEncoder starts a WAV file on w. bitDepth is 16, 24 or 32.
func NewEncoder(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*Encoder, error) {
	if sampleRate < 1 || channels < 1 || !pcm.Supported(bitDepth) {
		return nil, fmt.Errorf("%w: %d Hz, %d channels, %d bits",
			ErrUnsupportedEncoderArg, sampleRate, channels, bitDepth)
	}

	return &Encoder{
		enc:      gowav.NewEncoder(w, sampleRate, bitDepth, channels, wavFormatPCM),
		channels: channels,
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// WriteSamples appends samples, which must hold whole frames. Values are
// clamped to [-1, 1].
func (e *Encoder) WriteSamples(samples []float32) error {
	if len(samples)%e.channels != 0 {
		return fmt.Errorf("wav: %d samples is not a whole number of %d-channel frames",
			len(samples), e.channels)
	}
	if len(samples) == 0 {
		return nil
	}

	if cap(e.buf.Data) < len(samples) {
		e.buf.Data = make([]int, len(samples))
	}
	e.buf.Data = e.buf.Data[:len(samples)]
	pcm.FloatsToInts(e.buf.Data, samples, e.bitDepth)

	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("writing wav frames: %w", err)
	}
	e.frames += int64(len(samples) / e.channels)
	return nil
}

// Frames returns the number of frames written so far.
func (e *Encoder) Frames() int64 {
	return e.frames
}

// Close writes the final header sizes. It does not close the writer.
func (e *Encoder) Close() error {
	if e.frames == 0 {
		// an empty data chunk still needs its header
		e.buf.Data = e.buf.Data[:0]
		if err := e.enc.Write(e.buf); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
	}
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}
