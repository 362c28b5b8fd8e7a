// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ik5/playsched/ringbuf"
	"github.com/ik5/playsched/schedule"
)

// DefaultBufferSeconds sizes the playback buffer when Config.BufferFrames is
// zero.
const DefaultBufferSeconds = 0.5

// Mixer is a schedule.Mixer whose output can be read back after Process.
// Mixers that also implement SeekTo(float64) error are repositioned at start
// and on seeks, and those implementing SetSpeed(float64) follow a time warp.
type Mixer interface {
	schedule.Mixer
	Buffer() []float32
}

type seekingMixer interface {
	SeekTo(t float64) error
}

type warpingMixer interface {
	SetSpeed(speed float64)
}

// Config describes one playback session.
type Config struct {
	Rate     int
	Channels int

	// BufferFrames is the playback buffer length. Zero selects
	// DefaultBufferSeconds.
	BufferFrames int

	T0, T1  float64
	Options schedule.Options

	// Recording, when set, turns the session into a punch-in: captured
	// audio passes through the recording schedule to CaptureSink.
	Recording   *schedule.RecordingSchedule
	CaptureSink func(samples []float32) error

	// Speed scales how fast track time advances; zero means 1.
	Speed float64

	// TrimPadding stops Render at the real length of the region instead of
	// playing out the trailing silence of a straight play.
	TrimPadding bool

	Logger  zerolog.Logger
	Metrics *Metrics
}

type sessionState int32

const (
	stateIdle sessionState = iota
	stateRunning
	stateStopped
)

// Session drives a schedule.Schedule the way an audio device would: a
// producer goroutine fills a ring buffer from the mixers and a consumer
// callback drains it.
//
// Start, Position, Seek and Stop belong to the main goroutine. Produce and
// Step belong to the producer. Read is the consumer callback and Capture the
// input callback; neither blocks, locks or allocates.
type Session struct {
	id     uuid.UUID
	cfg    Config
	sched  *schedule.Schedule
	mixers []Mixer
	plain  []schedule.Mixer

	ring    *ringbuf.Buffer
	capture *ringbuf.Buffer

	metrics       *Metrics
	seeksApplied  prometheus.Counter
	seeksVetoed   prometheus.Counter
	capturePadded prometheus.Counter
	captureDrop   prometheus.Counter
	captureKept   prometheus.Counter

	state       atomic.Int32
	done        atomic.Bool
	seekPending atomic.Bool
	seekTo      atomic.Uint64

	// offline sessions hand off between producer and consumer instead of
	// sleeping; see Render.
	offline  bool
	produced chan struct{}
	consumed chan struct{}

	// producer only
	block      []float32
	captureBuf []float32
	recorded   []float32
	keptFrames int

	logger zerolog.Logger
}

// New creates an idle session over mixers. A session without mixers only
// records.
func New(cfg Config, mixers ...Mixer) (*Session, error) {
	if cfg.Rate <= 0 || cfg.Channels <= 0 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidConfig, cfg.Rate, cfg.Channels)
	}
	if len(mixers) == 0 && cfg.Recording == nil {
		return nil, fmt.Errorf("%w: nothing to play or record", ErrInvalidConfig)
	}
	if cfg.BufferFrames < 0 {
		return nil, fmt.Errorf("%w: buffer of %d frames", ErrInvalidConfig, cfg.BufferFrames)
	}
	if cfg.BufferFrames == 0 {
		cfg.BufferFrames = int(DefaultBufferSeconds * float64(cfg.Rate))
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1
	}
	if !(cfg.Speed > 0) || math.IsInf(cfg.Speed, 0) {
		return nil, fmt.Errorf("%w: speed %v", ErrInvalidConfig, cfg.Speed)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}

	id := uuid.New()
	logger := cfg.Logger.With().
		Str("component", "engine").
		Str("session", id.String()).
		Logger()

	s := &Session{
		id:            id,
		cfg:           cfg,
		sched:         schedule.NewSchedule(logger),
		mixers:        mixers,
		ring:          ringbuf.New(cfg.BufferFrames * cfg.Channels),
		metrics:       cfg.Metrics,
		seeksApplied:  cfg.Metrics.Seeks.WithLabelValues("applied"),
		seeksVetoed:   cfg.Metrics.Seeks.WithLabelValues("vetoed"),
		capturePadded: cfg.Metrics.CapturedFrames.WithLabelValues("padded"),
		captureDrop:   cfg.Metrics.CapturedFrames.WithLabelValues("discarded"),
		captureKept:   cfg.Metrics.CapturedFrames.WithLabelValues("kept"),
		logger:        logger,
	}
	for _, m := range mixers {
		s.plain = append(s.plain, m)
	}
	if cfg.Recording != nil {
		s.capture = ringbuf.New(cfg.BufferFrames * cfg.Channels)
	}

	return s, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

// Schedule exposes the session's schedule for inspection.
func (s *Session) Schedule() *schedule.Schedule { return s.sched }

// Done reports whether playback has reached its end.
func (s *Session) Done() bool { return s.done.Load() }

// Start initializes the schedule and positions the mixers at its start.
func (s *Session) Start() error {
	if !s.state.CompareAndSwap(int32(stateIdle), int32(stateRunning)) {
		return ErrAlreadyStarted
	}

	s.sched.Init(s.cfg.T0, s.cfg.T1, s.cfg.Options, s.cfg.Recording)
	policy := s.sched.Policy()
	policy.Initialize(s.sched, float64(s.cfg.Rate))

	if len(s.mixers) > 0 {
		s.sched.TimeQueue.Allocate(s.ring.Cap() / s.cfg.Channels)
	} else {
		s.sched.TimeQueue.Release()
	}

	t := s.sched.TrackTime()
	s.sched.TimeQueue.Prime(t)
	s.sched.RealTimeInit(t)

	if err := s.seekMixers(t); err != nil {
		policy.Finalize(s.sched)
		s.sched.ResetMode()
		s.state.Store(int32(stateIdle))
		return fmt.Errorf("positioning mixers: %w", err)
	}

	ev := s.logger.Info().
		Float64("t0", s.sched.T0()).
		Float64("t1", s.sched.T1()).
		Stringer("mode", s.sched.Mode()).
		Int("rate", s.cfg.Rate).
		Int("channels", s.cfg.Channels).
		Int("buffer_frames", s.ring.Cap()/s.cfg.Channels)
	if start, length := s.sched.CutPreviewGap(); length > 0 {
		ev = ev.Float64("cut_start", start).Float64("cut_length", length)
	}
	ev.Msg("session started")
	return nil
}

// Stop finalizes the policy and releases the time queue. The producer must
// have returned first.
func (s *Session) Stop() error {
	if !s.state.CompareAndSwap(int32(stateRunning), int32(stateStopped)) {
		return ErrNotStarted
	}

	s.sched.Policy().Finalize(s.sched)
	s.sched.ResetMode()
	s.sched.TimeQueue.Release()

	s.logger.Info().
		Float64("track_time", s.sched.TrackTime()).
		Bool("done", s.done.Load()).
		Msg("session stopped")
	return nil
}

// Position returns the track time to display for the audio being heard.
func (s *Session) Position() float64 {
	return s.sched.Policy().NormalizeTrackTime(s.sched)
}

// Seek asks the producer to continue from track time t. Audio already
// buffered still plays out.
func (s *Session) Seek(t float64) error {
	if sessionState(s.state.Load()) != stateRunning {
		return ErrNotStarted
	}
	if !s.sched.Policy().AllowSeek(s.sched) {
		s.seeksVetoed.Inc()
		s.logger.Debug().Float64("to", t).Stringer("mode", s.sched.Mode()).Msg("seek vetoed")
		return ErrSeekNotAllowed
	}

	s.seekTo.Store(math.Float64bits(t))
	s.seekPending.Store(true)
	return nil
}

// Produce runs the producer loop until playback is done or ctx ends.
func (s *Session) Produce(ctx context.Context) error {
	if sessionState(s.state.Load()) != stateRunning {
		return ErrNotStarted
	}

	policy := s.sched.Policy()
	timer := time.NewTimer(policy.SleepInterval(s.sched))
	defer timer.Stop()

	for {
		if s.done.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			s.logger.Error().Err(err).Msg("producer stopped")
			return err
		}
		if s.offline {
			notify(s.produced)
		}

		timer.Reset(policy.SleepInterval(s.sched))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-s.consumed:
		}
	}
}

// Step performs one producer pass: it applies a pending seek, fills the
// playback buffer and drains captured audio. Produce calls it every
// SleepInterval.
func (s *Session) Step() error {
	policy := s.sched.Policy()

	if err := s.applySeek(); err != nil {
		return err
	}
	if len(s.mixers) > 0 {
		if err := s.fill(policy); err != nil {
			return err
		}
	}
	if err := s.drainCapture(); err != nil {
		return err
	}

	if len(s.mixers) == 0 && s.cfg.Recording.ToConsume() <= 0 {
		s.done.Store(true)
	}
	return nil
}

func (s *Session) fill(policy schedule.Policy) error {
	for {
		available := s.ring.Free() / s.cfg.Channels
		if available == 0 {
			break
		}

		slice := policy.GetPlaybackSlice(s.sched, available)
		if slice.Frames == 0 {
			break
		}
		if err := s.produce(slice); err != nil {
			return err
		}

		before := s.sched.RealTimeRemaining()
		stop := policy.RepositionPlayback(s.sched, s.plain, slice.Frames, available)
		if policy.Looping(s.sched) && s.sched.RealTimeRemaining() > before {
			// The mixers rewind to their own start, which is ahead of the
			// region start when recording with pre-roll.
			if err := s.seekMixers(s.sched.T0()); err != nil {
				return fmt.Errorf("restarting loop at %.3fs: %w", s.sched.T0(), err)
			}
			s.metrics.LoopRestarts.Inc()
			s.logger.Debug().Float64("t0", s.sched.T0()).Msg("loop restarted")
		}
		if stop {
			break
		}
	}

	s.metrics.BufferedSeconds.Set(float64(s.ring.Available()/s.cfg.Channels) / float64(s.cfg.Rate))
	return nil
}

// produce mixes one slice, stamps it in the time queue and publishes it.
func (s *Session) produce(slice schedule.Slice) error {
	ch := s.cfg.Channels
	n := slice.Frames * ch
	if cap(s.block) < n {
		s.block = make([]float32, n)
	}
	block := s.block[:n]
	clear(block)

	// Stamps go in before the audio is visible to the consumer. The audible
	// frames are stamped apart from the trailing silence so the warp speed is
	// measured over audio only.
	q := &s.sched.TimeQueue
	rate := float64(s.cfg.Rate)
	from := q.LastTime()
	q.Producer(s.sched, rate, s.cfg.Speed, slice.ToProduce)
	audible := q.LastTime() - from
	q.Producer(s.sched, rate, s.cfg.Speed, slice.Frames-slice.ToProduce)

	if slice.ToProduce > 0 {
		if s.sched.Envelope() != nil {
			s.followWarp(audible, slice.ToProduce)
		}
		for _, m := range s.mixers {
			got, err := m.Process(slice.ToProduce)
			if err != nil {
				return fmt.Errorf("mixing %d frames: %w", slice.ToProduce, err)
			}
			buf := m.Buffer()
			for i := range min(got*ch, len(buf), n) {
				block[i] += buf[i]
			}
		}
	}

	s.ring.Write(block)

	s.metrics.Slices.Inc()
	s.metrics.FramesProduced.Add(float64(slice.ToProduce))
	s.metrics.SilenceFrames.Add(float64(slice.Frames - slice.ToProduce))
	return nil
}

// followWarp sets the mixers' speed to the mean rate at which track time
// moved over the block just stamped.
func (s *Session) followWarp(advance float64, frames int) {
	if s.sched.ReversedTime() {
		advance = -advance
	}
	// a loop wrapped inside the block; keep the previous speed
	if advance <= 0 {
		return
	}

	speed := advance * float64(s.cfg.Rate) / float64(frames)
	for _, m := range s.mixers {
		if w, ok := m.(warpingMixer); ok {
			w.SetSpeed(speed)
		}
	}
}

func (s *Session) applySeek() error {
	if !s.seekPending.CompareAndSwap(true, false) {
		return nil
	}

	t := s.sched.ClampTrackTime(math.Float64frombits(s.seekTo.Load()))
	if err := s.seekMixers(t); err != nil {
		return fmt.Errorf("seeking to %.3fs: %w", t, err)
	}
	s.sched.SetTrackTime(t)
	s.sched.TimeQueue.Restamp(t)
	s.sched.RealTimeInit(t)

	s.seeksApplied.Inc()
	s.logger.Debug().Float64("to", t).Msg("seek applied")
	return nil
}

func (s *Session) seekMixers(t float64) error {
	for _, m := range s.mixers {
		if sm, ok := m.(seekingMixer); ok {
			if err := sm.SeekTo(t); err != nil {
				return err
			}
		}
	}
	return nil
}

// Read is the output callback. It fills dst with the next frames of audio,
// padding with silence when the buffer runs dry, and returns the number of
// frames taken from the buffer.
func (s *Session) Read(dst []float32) int {
	ch := s.cfg.Channels
	dst = dst[:len(dst)-len(dst)%ch]

	if sessionState(s.state.Load()) != stateRunning {
		clear(dst)
		return 0
	}

	n := s.ring.Read(dst)
	clear(dst[n:])
	frames := n / ch

	// A session that only records tracks time in Capture.
	t := s.sched.TrackTime()
	if len(s.mixers) > 0 {
		t = s.sched.TimeQueue.Consumer(frames, float64(s.cfg.Rate))
		s.sched.SetTrackTime(t)
	}

	s.metrics.FramesPlayed.Add(float64(frames))
	s.metrics.TrackTime.Set(t)

	if s.sched.Policy().Done(s.sched, s.ring.Available()/ch) {
		s.done.Store(true)
	} else if short := len(dst)/ch - frames; short > 0 && !s.offline {
		s.metrics.UnderrunFrames.Add(float64(short))
	}

	if s.offline {
		notify(s.consumed)
	}
	return frames
}

// Capture is the input callback for recording sessions. It queues whole
// frames of interleaved samples and returns how many samples were taken.
// Without playback, track time advances by the frames taken.
func (s *Session) Capture(samples []float32) int {
	if s.capture == nil || sessionState(s.state.Load()) != stateRunning {
		return 0
	}
	ch := s.cfg.Channels
	free := s.capture.Free()
	n := min(len(samples), free-free%ch)
	n = s.capture.Write(samples[:n-n%ch])

	if len(s.mixers) == 0 && n > 0 {
		t := s.sched.TimeQueue.Consumer(n/ch, float64(s.cfg.Rate))
		s.sched.SetTrackTime(t)
		s.metrics.TrackTime.Set(t)
	}
	return n
}

// drainCapture moves captured audio through the recording schedule and hands
// what is kept to CaptureSink.
func (s *Session) drainCapture() error {
	if s.capture == nil {
		return nil
	}

	ch := s.cfg.Channels
	n := s.capture.Available()
	n -= n % ch
	if n == 0 {
		return nil
	}
	if cap(s.captureBuf) < n {
		s.captureBuf = make([]float32, n)
	}
	in := s.captureBuf[:n]
	s.capture.Read(in)

	rec := s.cfg.Recording
	split := rec.Take(n/ch, float64(s.cfg.Rate))

	s.capturePadded.Add(float64(split.Pad))
	s.captureDrop.Add(float64(split.Discard))
	s.captureKept.Add(float64(split.Keep))

	frames := split.Pad + split.Keep
	if frames == 0 {
		return nil
	}

	out := s.recorded[:0]
	if cap(out) < frames*ch {
		out = make([]float32, 0, frames*ch)
	}
	out = append(out, make([]float32, split.Pad*ch)...)
	out = append(out, in[split.Discard*ch:(split.Discard+split.Keep)*ch]...)
	rec.Crossfade(out, ch, s.keptFrames)
	s.keptFrames += frames
	s.recorded = out

	if split.Pad > 0 {
		s.logger.Debug().Int("frames", split.Pad).Msg("recording padded for latency")
	}

	if s.cfg.CaptureSink == nil {
		return nil
	}
	if err := s.cfg.CaptureSink(out); err != nil {
		return fmt.Errorf("capture sink: %w", err)
	}
	return nil
}

// notify wakes the other side without blocking.
func notify(c chan struct{}) {
	select {
	case c <- struct{}{}:
	default:
	}
}
