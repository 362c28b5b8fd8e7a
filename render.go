// SPDX-License-Identifier: EPL-2.0

package playsched

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ik5/playsched/audio"
	"github.com/ik5/playsched/engine"
	"github.com/ik5/playsched/formats/wav"
	"github.com/ik5/playsched/mix"
	"github.com/ik5/playsched/schedule"
	"github.com/ik5/playsched/warp"
)

const (
	DefaultBitDepth    = 16
	DefaultBlockFrames = 1024
)

// Track is one file to mix. A zero Gain mutes it.
type Track struct {
	Name string
	Path string
	Gain float32
}

// Config describes a render.
type Config struct {
	Rate     int
	Channels int
	BitDepth int // 16, 24 or 32; zero means DefaultBitDepth

	// BufferFrames and BlockFrames size the playback buffer and the blocks
	// written out. Zero picks the defaults.
	BufferFrames int
	BlockFrames  int

	T0, T1 float64

	Loop bool
	// MaxSeconds bounds the output; zero plays the region once.
	MaxSeconds float64

	PadFrames        int
	CutPreviewStart  float64
	CutPreviewLength float64
	Envelope         warp.Envelope

	Tracks []Track

	Registry *audio.Registry // DefaultRegistry when nil
	Metrics  *engine.Metrics
	Logger   zerolog.Logger
}

// Result reports a finished render.
type Result struct {
	SessionID uuid.UUID
	Frames    int64
	Seconds   float64
}

// RenderWAV plays the configured region of the tracks offline and writes it
// to w as a WAV file. w must be seekable so the header can be finished.
func RenderWAV(ctx context.Context, w io.WriteSeeker, cfg Config) (Result, error) {
	if len(cfg.Tracks) == 0 {
		return Result{}, ErrNoTracks
	}
	if cfg.Rate <= 0 || cfg.Channels <= 0 {
		return Result{}, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidConfig, cfg.Rate, cfg.Channels)
	}
	if cfg.MaxSeconds < 0 || math.IsNaN(cfg.MaxSeconds) {
		return Result{}, fmt.Errorf("%w: max %v seconds", ErrInvalidConfig, cfg.MaxSeconds)
	}
	if cfg.BitDepth == 0 {
		cfg.BitDepth = DefaultBitDepth
	}
	if cfg.BlockFrames == 0 {
		cfg.BlockFrames = DefaultBlockFrames
	}
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}

	logger := cfg.Logger.With().Str("component", "render").Logger()

	m, closeTracks, err := openMixer(cfg, logger)
	if err != nil {
		return Result{}, err
	}
	defer closeTracks()

	sess, err := engine.New(engine.Config{
		Rate:         cfg.Rate,
		Channels:     cfg.Channels,
		BufferFrames: cfg.BufferFrames,
		T0:           cfg.T0,
		T1:           cfg.T1,
		Options: schedule.Options{
			Envelope:           cfg.Envelope,
			PlayLooped:         cfg.Loop,
			CutPreviewGapStart: cfg.CutPreviewStart,
			CutPreviewGapLen:   cfg.CutPreviewLength,
			PadFrames:          cfg.PadFrames,
		},
		TrimPadding: true,
		Logger:      cfg.Logger,
		Metrics:     cfg.Metrics,
	}, m)
	if err != nil {
		return Result{}, err
	}

	enc, err := wav.NewEncoder(w, cfg.Rate, cfg.Channels, cfg.BitDepth)
	if err != nil {
		return Result{}, err
	}

	maxFrames := int64(math.Floor(cfg.MaxSeconds*float64(cfg.Rate) + 0.5))
	frames, err := sess.Render(ctx, cfg.BlockFrames, maxFrames, enc.WriteSamples)
	if cerr := enc.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}

	res := Result{
		SessionID: sess.ID(),
		Frames:    frames,
		Seconds:   float64(frames) / float64(cfg.Rate),
	}
	if err != nil {
		return res, fmt.Errorf("render %s: %w", sess.ID(), err)
	}

	logger.Info().
		Stringer("session", sess.ID()).
		Int64("frames", frames).
		Float64("seconds", res.Seconds).
		Msg("wav written")
	return res, nil
}

// openMixer decodes every track and builds one mixer over them. The returned
// func closes the mixer and the files.
func openMixer(cfg Config, logger zerolog.Logger) (*mix.Mixer, func(), error) {
	var (
		tracks []mix.Track
		closed []io.Closer
	)
	closeAll := func() {
		for _, c := range closed {
			if err := c.Close(); err != nil {
				logger.Warn().Err(err).Msg("close failed")
			}
		}
	}

	for _, t := range cfg.Tracks {
		src, f, err := OpenFile(cfg.Registry, t.Path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closed = append(closed, f)

		logger.Debug().
			Str("path", t.Path).
			Int("rate", src.SampleRate()).
			Int("channels", src.Channels()).
			Msg("track opened")

		tracks = append(tracks, mix.Track{Name: t.Name, Source: src, Gain: t.Gain})
	}

	m, err := mix.New(mix.Config{
		Rate:     cfg.Rate,
		Channels: cfg.Channels,
		Start:    cfg.T0,
		Reverse:  cfg.T1 < cfg.T0,
		Logger:   cfg.Logger,
	}, tracks...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return m, func() {
		if err := m.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing mixer")
		}
		closeAll()
	}, nil
}
