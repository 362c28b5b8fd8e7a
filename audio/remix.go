// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Remixer changes the channel count of a Source.
//
// Down-mixing averages every source channel i into output channel i % out, so
// stereo to mono is the mean of left and right. Up-mixing repeats source
// channels in order, so mono to stereo duplicates the signal.
type Remixer struct {
	src      Source
	channels int
	tmp      []float32
}

func NewRemixer(src Source, channels int) *Remixer {
	return &Remixer{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096),
	}
}

// NewMonoMixer down-mixes src to a single channel.
func NewMonoMixer(src Source) *Remixer {
	return NewRemixer(src, 1)
}

func (m *Remixer) SampleRate() int { return m.src.SampleRate() }
func (m *Remixer) Channels() int   { return m.channels }
func (m *Remixer) BufSize() int    { return m.src.BufSize() }

func (m *Remixer) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// SeekFrame passes through to the source.
func (m *Remixer) SeekFrame(frame int64) error {
	s, ok := m.src.(Seeker)
	if !ok {
		return ErrNotSeekable
	}
	if err := s.SeekFrame(frame); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (m *Remixer) Frames() int64 {
	if s, ok := m.src.(Sized); ok {
		return s.Frames()
	}
	return -1
}

func (m *Remixer) ReadSamples(dst []float32) (int, error) {
	if m.channels <= 0 {
		return 0, ErrInvalidChannels
	}
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}

	in := m.src.Channels()
	if in == m.channels {
		return m.src.ReadSamples(dst)
	}
	if in <= 0 {
		return 0, ErrInvalidChannels
	}

	frames := len(dst) / m.channels
	samplesNeeded := frames * in

	// Grow tmp buffer if needed but never shrink it
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	frames = n / in

	switch {
	case m.channels == 1 && in == 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	case m.channels < in:
		for f := range frames {
			out := dst[f*m.channels : (f+1)*m.channels]
			clear(out)
			src := m.tmp[f*in : (f+1)*in]
			for c, v := range src {
				out[c%m.channels] += v
			}
			for c := range out {
				// channels that received an extra source channel average more
				count := in / m.channels
				if c < in%m.channels {
					count++
				}
				out[c] /= float32(count)
			}
		}
	default:
		for f := range frames {
			out := dst[f*m.channels : (f+1)*m.channels]
			src := m.tmp[f*in : (f+1)*in]
			for c := range out {
				out[c] = src[c%in]
			}
		}
	}

	return frames * m.channels, err
}
