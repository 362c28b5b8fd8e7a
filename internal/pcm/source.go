// SPDX-License-Identifier: EPL-2.0

package pcm

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// ErrUnsupportedBitDepth is returned for PCM that is not signed 16, 24 or 32
// bit.
var ErrUnsupportedBitDepth = errors.New("unsupported PCM bit depth")

// Reader is the part of a go-audio decoder a Source reads through.
type Reader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// OpenFunc returns a Reader positioned at the first PCM frame. It is called
// once up front and again for every seek.
type OpenFunc func() (Reader, error)

// Source adapts a go-audio integer decoder to audio.Source, audio.Seeker and
// audio.Sized.
type Source struct {
	open     OpenFunc
	dec      Reader
	rate     int
	channels int
	bitDepth int
	frames   int64
	scale    float32
	intBuf   *goaudio.IntBuffer
	ints     []int
	carry    []int
	eof      bool
}

// NewSource opens the stream once to read its format. frames is the stream
// length, or -1 when unknown.
func NewSource(open OpenFunc, bitDepth int, frames int64) (*Source, error) {
	if !Supported(bitDepth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	dec, err := open()
	if err != nil {
		return nil, err
	}

	format := dec.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate < 1 {
		return nil, fmt.Errorf("pcm: invalid format %+v", format)
	}

	return &Source{
		open:     open,
		dec:      dec,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: bitDepth,
		frames:   frames,
		scale:    Scale(bitDepth),
		intBuf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.NumChannels, SampleRate: format.SampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) Close() error    { return nil }
func (s *Source) BitDepth() int   { return s.bitDepth }
func (s *Source) Frames() int64   { return s.frames }

func (s *Source) BufSize() int {
	if cap(s.ints) > 0 {
		return cap(s.ints)
	}
	return 4096
}

// readInts reads up to n samples into s.ints and returns a whole number of
// frames. A trailing partial frame is carried over to the next call.
func (s *Source) readInts(n int) (int, error) {
	if cap(s.ints) < n {
		s.ints = make([]int, n)
	}
	s.ints = s.ints[:n]

	k := copy(s.ints, s.carry)
	s.carry = s.carry[:0]
	s.intBuf.Data = s.ints[k:]

	got, err := s.dec.PCMBuffer(s.intBuf)
	got += k
	if rem := got % s.channels; rem > 0 {
		got -= rem
		s.carry = append(s.carry, s.ints[got:got+rem]...)
	}
	return got, err
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}
	if s.eof {
		return 0, io.EOF
	}

	n, err := s.readInts(want)
	for i := range n {
		dst[i] = float32(s.ints[i]) / s.scale
	}

	switch {
	case err == io.EOF || (err == nil && n == 0):
		s.eof = true
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	case err != nil:
		return n, fmt.Errorf("reading pcm: %w", err)
	}

	return n, nil
}

// SeekFrame reopens the stream and skips to frame.
func (s *Source) SeekFrame(frame int64) error {
	dec, err := s.open()
	if err != nil {
		return fmt.Errorf("reopening for seek: %w", err)
	}
	s.dec = dec
	s.eof = false
	s.carry = s.carry[:0]

	remaining := max(frame, 0) * int64(s.channels)
	chunk := int64(4096 - 4096%s.channels)
	for remaining > 0 {
		n, err := s.readInts(int(min(remaining, chunk)))
		remaining -= int64(n)
		if err != nil && err != io.EOF {
			return fmt.Errorf("skipping to frame %d: %w", frame, err)
		}
		if n == 0 || err == io.EOF {
			s.eof = remaining > 0
			break
		}
	}
	return nil
}
