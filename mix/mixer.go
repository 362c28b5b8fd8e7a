// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"

	"github.com/ik5/playsched/audio"
)

// Track is one source to mix. Gain scales its samples; zero mutes it.
type Track struct {
	Name   string
	Source audio.Source
	Gain   float32
}

// Config describes the mixer output and where on the timeline it starts.
type Config struct {
	Rate     int
	Channels int

	// Start is the track time Restart returns to.
	Start float64

	// Speed is a constant playback speed. Zero means 1.
	Speed float64

	// Reverse reads the tracks backwards from Start.
	Reverse bool

	Logger zerolog.Logger
}

type track struct {
	name  string
	src   audio.Source
	rs    *audio.Resampler
	chain audio.Source // src resampled and remixed to the output format
	seek  audio.Seeker
	gain  float32
	done  bool

	// touched is set once the chain has moved off frame zero.
	touched bool
}

// Mixer sums its tracks into one interleaved block per Process call. It
// implements schedule.Mixer and is driven by a single producer goroutine.
type Mixer struct {
	rate     int
	channels int
	start    float64
	speed    float64
	reverse  bool

	tracks []*track

	// pos is the track time of the next frame to mix.
	pos float64

	buf     []float32
	scratch []float32
	err     error

	logger zerolog.Logger
}

// New builds a mixer over tracks and positions it at cfg.Start.
func New(cfg Config, tracks ...Track) (*Mixer, error) {
	if cfg.Rate <= 0 || cfg.Channels <= 0 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidFormat, cfg.Rate, cfg.Channels)
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	speed := cfg.Speed
	if speed == 0 {
		speed = 1
	}
	if !(speed > 0) || math.IsInf(speed, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpeed, cfg.Speed)
	}

	m := &Mixer{
		rate:     cfg.Rate,
		channels: cfg.Channels,
		start:    cfg.Start,
		speed:    speed,
		reverse:  cfg.Reverse,
		logger:   cfg.Logger.With().Str("component", "mixer").Logger(),
	}

	for i, t := range tracks {
		if t.Source == nil {
			return nil, fmt.Errorf("track %d has no source", i)
		}

		rs := audio.NewResampler(t.Source, cfg.Rate)
		rs.SetSpeed(speed)
		chain := audio.NewRemixer(rs, cfg.Channels)

		name := t.Name
		if name == "" {
			name = fmt.Sprintf("track-%d", i)
		}

		m.tracks = append(m.tracks, &track{
			name:  name,
			src:   t.Source,
			rs:    rs,
			chain: chain,
			seek:  chain,
			gain:  t.Gain,
		})
	}

	if err := m.SeekTo(cfg.Start); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mixer) Rate() int     { return m.rate }
func (m *Mixer) Channels() int { return m.channels }

// Position returns the track time of the next frame Process will mix.
func (m *Mixer) Position() float64 { return m.pos }

// Buffer returns the interleaved samples of the last Process call.
func (m *Mixer) Buffer() []float32 { return m.buf }

// Speed returns the current playback speed.
func (m *Mixer) Speed() float64 { return m.speed }

// SetSpeed changes the playback speed from the next block on. It lets a
// caller follow a time warp one block at a time. Non-positive values are
// ignored.
func (m *Mixer) SetSpeed(speed float64) {
	if !(speed > 0) || math.IsInf(speed, 0) {
		return
	}
	m.speed = speed
	for _, tr := range m.tracks {
		tr.rs.SetSpeed(speed)
	}
}

// Err returns the error that stopped the mixer, if any.
func (m *Mixer) Err() error { return m.err }

// SeekTo moves every track to track time t. A track that has not been read
// yet is already at zero and needs no seek, so unseekable sources can still
// start from the beginning.
func (m *Mixer) SeekTo(t float64) error {
	t = max(t, 0)
	frame := int64(math.Round(t * float64(m.rate)))

	var errs []error
	for _, tr := range m.tracks {
		tr.done = false
		if frame == 0 && !tr.touched {
			continue
		}
		if err := tr.seek.SeekFrame(frame); err != nil {
			if errors.Is(err, audio.ErrNotSeekable) {
				err = fmt.Errorf("%w: %s", ErrTrackNotSeeker, tr.name)
			}
			errs = append(errs, fmt.Errorf("seeking %s to %.3fs: %w", tr.name, t, err))
			continue
		}
		tr.touched = frame != 0
	}
	m.pos = t

	return errors.Join(errs...)
}

// Restart rewinds to the configured start. A failure is kept and reported by
// the next Process call.
func (m *Mixer) Restart() {
	if err := m.SeekTo(m.start); err != nil && m.err == nil {
		m.fail(err)
	}
	m.logger.Debug().Float64("start", m.start).Msg("mixer restarted")
}

// Process mixes the next frames frames into Buffer. Tracks that have ended
// contribute silence, so it returns frames unless a track fails; after a
// failure every call returns the same error.
func (m *Mixer) Process(frames int) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if frames <= 0 {
		m.buf = m.buf[:0]
		return 0, nil
	}

	n := frames * m.channels
	if cap(m.buf) < n {
		m.buf = make([]float32, n)
		m.scratch = make([]float32, n)
	}
	m.buf = m.buf[:n]
	m.scratch = m.scratch[:n]
	clear(m.buf)

	// lead is the silence ahead of the audio in read order. Reversed blocks
	// that hit the start of the timeline are short.
	lead := 0
	if m.reverse {
		var err error
		if lead, err = m.rewind(frames); err != nil {
			m.fail(err)
			return 0, err
		}
	}

	for _, tr := range m.tracks {
		if tr.done || tr.gain == 0 {
			continue
		}
		if err := m.add(tr, lead*m.channels); err != nil {
			m.fail(err)
			return 0, err
		}
	}

	if m.reverse {
		reverseFrames(m.buf, m.channels)
	} else {
		m.pos += float64(frames) * m.speed / float64(m.rate)
	}
	return frames, nil
}

// rewind seeks every track to the start of the block of frames that ends at
// the current position and returns how many frames of it fall before zero.
func (m *Mixer) rewind(frames int) (int, error) {
	end := m.pos
	start := max(end-float64(frames)*m.speed/float64(m.rate), 0)
	if err := m.SeekTo(start); err != nil {
		return 0, err
	}

	covered := int(math.Round((end - start) * float64(m.rate) / m.speed))
	return frames - min(covered, frames), nil
}

// add reads the block from offset onwards out of tr and sums it into m.buf.
func (m *Mixer) add(tr *track, offset int) error {
	want := len(m.buf)
	got := offset
	for got < want {
		n, err := tr.chain.ReadSamples(m.scratch[got:want])
		got += n
		if n > 0 {
			tr.touched = true
		}
		if err == io.EOF {
			tr.done = true
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", tr.name, err)
		}
		if n == 0 {
			break
		}
	}

	for i := offset; i < got; i++ {
		m.buf[i] += m.scratch[i] * tr.gain
	}
	return nil
}

func (m *Mixer) fail(err error) {
	m.err = err
	m.logger.Error().Err(err).Float64("position", m.pos).Msg("mixer stopped")
}

// Close closes every track source.
func (m *Mixer) Close() error {
	var errs []error
	for _, tr := range m.tracks {
		if err := tr.src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", tr.name, err))
		}
	}
	return errors.Join(errs...)
}

// reverseFrames reverses the frame order of interleaved samples in place.
func reverseFrames(buf []float32, channels int) {
	frames := len(buf) / channels
	for i, j := 0, frames-1; i < j; i, j = i+1, j-1 {
		a := buf[i*channels : (i+1)*channels]
		b := buf[j*channels : (j+1)*channels]
		for c := range channels {
			a[c], b[c] = b[c], a[c]
		}
	}
}
