// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"math"
)

// Resampler streams from src to a target sample rate using cubic
// interpolation. It works on interleaved samples and preserves the channel
// count. A speed factor other than one plays the source faster or slower,
// changing its pitch.
//
// A simple one-pole low-pass filter runs whenever the source is consumed
// faster than the output rate.
type Resampler struct {
	src      Source
	srcRate  float64
	dstRate  float64
	speed    float64
	ratio    float64 // source frames consumed per output frame
	channels int

	// Window of 4 frames for cubic interpolation
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames   [4][]float32
	hasFrame [4]bool

	// Position between frames[1] and frames[2], in source frames
	pos float64

	srcBuf []float32
	eof    bool

	filterState []float32
	useFilter   bool
	filterAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()

	r := &Resampler{
		src:         src,
		srcRate:     float64(src.SampleRate()),
		dstRate:     float64(dstRate),
		speed:       1,
		channels:    channels,
		srcBuf:      make([]float32, max(channels, 1)),
		filterState: make([]float32, channels),
	}
	r.updateRatio()

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) updateRatio() {
	r.ratio = r.srcRate / r.dstRate * r.speed
	r.useFilter = r.ratio > 1.0
	r.filterAlpha = 0
	if r.useFilter {
		r.filterAlpha = 0.5
	}
}

// SetSpeed changes the playback speed; 1 is normal speed. Non-positive
// values are ignored.
func (r *Resampler) SetSpeed(speed float64) {
	if !(speed > 0) {
		return
	}
	r.speed = speed
	r.updateRatio()
}

func (r *Resampler) Speed() float64 { return r.speed }

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Reset drops the interpolation window so the next read starts afresh from
// the source's current position.
func (r *Resampler) Reset() {
	r.hasFrame = [4]bool{}
	r.pos = 0
	r.eof = false
	clear(r.filterState)
}

// SeekFrame seeks the source to the frame matching frame output frames at
// normal speed, then resets.
func (r *Resampler) SeekFrame(frame int64) error {
	s, ok := r.src.(Seeker)
	if !ok {
		return ErrNotSeekable
	}

	srcFrame := int64(math.Round(float64(frame) * r.srcRate / r.dstRate))
	if err := s.SeekFrame(srcFrame); err != nil {
		return fmt.Errorf("%w", err)
	}
	r.Reset()
	return nil
}

// Frames returns the length in output frames at normal speed, or -1.
func (r *Resampler) Frames() int64 {
	s, ok := r.src.(Sized)
	if !ok {
		return -1
	}
	n := s.Frames()
	if n < 0 {
		return -1
	}
	return int64(math.Round(float64(n) * r.dstRate / r.srcRate))
}

// readFrame reads one source frame into dst, filtering it when needed.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	n, err := r.src.ReadSamples(r.srcBuf[:r.channels])
	got := n == r.channels
	if got {
		copy(dst, r.srcBuf[:n])
		if r.useFilter {
			for c := range r.channels {
				// y[n] = alpha * x[n] + (1-alpha) * y[n-1]
				dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
				r.filterState[c] = dst[c]
			}
		}
	}

	if err == io.EOF {
		r.eof = true
		return got, nil
	}
	if err != nil {
		return got, fmt.Errorf("%w", err)
	}
	if !got {
		// a source that returns nothing without EOF is treated as drained
		r.eof = true
	}
	return got, nil
}

// fill loads the first window, with the first frame standing in for t-1.
func (r *Resampler) fill() error {
	n, err := r.src.ReadSamples(r.srcBuf[:r.channels])
	if n == r.channels {
		copy(r.frames[1], r.srcBuf[:n])
		copy(r.filterState, r.srcBuf[:n])
	}
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w", err)
	}
	if n != r.channels {
		r.eof = true
		return io.EOF
	}
	if err == io.EOF {
		r.eof = true
	}

	copy(r.frames[0], r.frames[1])
	r.hasFrame[0], r.hasFrame[1] = true, true

	for i := 2; i < 4; i++ {
		if r.eof {
			break
		}
		ok, err := r.readFrame(r.frames[i])
		if err != nil {
			return err
		}
		r.hasFrame[i] = ok
	}
	return nil
}

// advance shifts the window by one source frame.
func (r *Resampler) advance() error {
	copy(r.frames[0], r.frames[1])
	copy(r.frames[1], r.frames[2])
	copy(r.frames[2], r.frames[3])
	r.hasFrame[0] = r.hasFrame[1]
	r.hasFrame[1] = r.hasFrame[2]
	r.hasFrame[2] = r.hasFrame[3]
	r.hasFrame[3] = false

	if r.eof {
		return nil
	}
	ok, err := r.readFrame(r.frames[3])
	r.hasFrame[3] = ok
	return err
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if r.channels <= 0 || len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.hasFrame[1] {
		if r.eof {
			return 0, io.EOF
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		if !r.hasFrame[1] {
			break
		}

		// The last frame plays on its own until the position moves past it.
		if !r.hasFrame[2] {
			if r.pos > 0 {
				r.hasFrame[1] = false
				break
			}
			copy(dst[written*r.channels:], r.frames[1])
			written++
			r.pos += r.ratio
			continue
		}

		alpha := float32(r.pos)
		for c := range r.channels {
			y0 := r.frames[0][c]
			y1 := r.frames[1][c]
			y2 := r.frames[2][c]
			y3 := y2
			if r.hasFrame[3] {
				y3 = r.frames[3][c]
			}
			dst[written*r.channels+c] = CubicInterpolate(y0, y1, y2, y3, alpha)
		}

		written++
		r.pos += r.ratio
	}

	if written < framesNeeded {
		r.hasFrame[1] = false
		return written * r.channels, io.EOF
	}
	return written * r.channels, nil
}
