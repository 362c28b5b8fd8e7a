// SPDX-License-Identifier: EPL-2.0

package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ik5/playsched/warp"
)

// Session describes one render: the region to play, how to play it, and the
// tracks to mix.
//
//	t0: 1.5
//	t1: 9
//	loop: true
//	max_seconds: 30
//	speed:
//	  points:
//	    - {t: 2, speed: 1}
//	    - {t: 6, speed: 0.5}
//	tracks:
//	  - path: drums.wav
//	  - path: bass.ogg
//	    gain: 0.8
type Session struct {
	T0         float64     `yaml:"t0"`
	T1         float64     `yaml:"t1"`
	Loop       bool        `yaml:"loop"`
	MaxSeconds float64     `yaml:"max_seconds"`
	PadFrames  int         `yaml:"pad_frames"`
	CutPreview *CutPreview `yaml:"cut_preview,omitempty"`
	Speed      *SpeedCurve `yaml:"speed,omitempty"`
	Tracks     []Track     `yaml:"tracks"`
}

// CutPreview is a removed region that displayed times jump over.
type CutPreview struct {
	Start  float64 `yaml:"start"`
	Length float64 `yaml:"length"`
}

// SpeedCurve is a time warp given as control points.
type SpeedCurve struct {
	Points []warp.Point `yaml:"points"`
	Bounds warp.Bounds  `yaml:"bounds"`
}

type Track struct {
	Name string   `yaml:"name"`
	Path string   `yaml:"path"`
	Gain *float32 `yaml:"gain"` // unity when unset
}

// Level returns the track gain.
func (t Track) Level() float32 {
	if t.Gain == nil {
		return 1
	}
	return *t.Gain
}

// LoadSession reads and validates a session file. Relative track paths are
// taken from the file's directory.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	s, err := ParseSession(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range s.Tracks {
		if !filepath.IsAbs(s.Tracks[i].Path) {
			s.Tracks[i].Path = filepath.Join(dir, s.Tracks[i].Path)
		}
	}
	return s, nil
}

// ParseSession decodes and validates a session document. Unknown keys are
// rejected.
func ParseSession(data []byte) (*Session, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Session
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the region, the tracks and the speed curve.
func (s *Session) Validate() error {
	for _, v := range []float64{s.T0, s.T1, s.MaxSeconds} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: t0=%v t1=%v max_seconds=%v", ErrInvalidRegion, s.T0, s.T1, s.MaxSeconds)
		}
	}
	if s.Loop && s.MaxSeconds == 0 {
		return ErrUnboundedLoop
	}
	if s.PadFrames < 0 {
		return fmt.Errorf("%w: pad_frames %d", ErrInvalidSession, s.PadFrames)
	}
	if s.CutPreview != nil && (s.CutPreview.Start < 0 || s.CutPreview.Length < 0) {
		return fmt.Errorf("%w: cut preview %+v", ErrInvalidRegion, *s.CutPreview)
	}

	if len(s.Tracks) == 0 {
		return ErrNoTracks
	}
	for i, t := range s.Tracks {
		if t.Path == "" {
			return fmt.Errorf("%w: track %d has no path", ErrInvalidTrack, i)
		}
		if g := t.Level(); !(g >= 0) || math.IsInf(float64(g), 0) {
			return fmt.Errorf("%w: track %d gain %v", ErrInvalidTrack, i, g)
		}
	}

	if _, err := s.Envelope(); err != nil {
		return err
	}
	return nil
}

// Envelope builds the session's time warp, or returns nil when it has none.
func (s *Session) Envelope() (warp.Envelope, error) {
	if s.Speed == nil {
		return nil, nil
	}

	env, err := warp.NewSpeedEnvelope(s.Speed.Points, s.Speed.Bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: speed curve: %w", ErrInvalidSession, err)
	}
	return env, nil
}
