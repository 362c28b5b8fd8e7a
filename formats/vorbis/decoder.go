// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/playsched/audio"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
	SetPosition(pos int64) error
	Length() int64
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

// Frames returns the stream length in frames, or -1 when unknown.
func (s *source) Frames() int64 {
	if l := s.dec.Length(); l > 0 {
		return l
	}
	return -1
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	// oggvorbis reads whole frames and returns the number of values
	// (frames * channels) written to dst
	dst = dst[:len(dst)-len(dst)%s.channels]
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}
	return n, err
}

// SeekFrame moves to frame. Positions past the end leave the source
// drained.
func (s *source) SeekFrame(frame int64) error {
	total := s.Frames()
	if total < 0 {
		return audio.ErrNotSeekable
	}
	if err := s.dec.SetPosition(min(max(frame, 0), total)); err != nil {
		return fmt.Errorf("seeking vorbis to frame %d: %w", frame, err)
	}
	return nil
}

type Decoder struct{}

// Decode opens an Ogg Vorbis stream. The stream length is only known for
// seekable input, so r is buffered in memory unless it is already an
// io.ReadSeeker.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	if _, ok := r.(io.ReadSeeker); !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading vorbis data: %w", err)
		}
		r = bytes.NewReader(data)
	}

	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec), nil
}

func newSource(dec oggReader) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   max(dec.Channels(), 1),
	}
}
