// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Render plays the session offline, as fast as the mixers allow, handing
// blocks of at most blockFrames frames to sink. It starts and stops the
// session itself and returns the number of frames delivered.
//
// maxFrames bounds the output; zero means until playback is done, which
// looping and interactive sessions never are.
func (s *Session) Render(ctx context.Context, blockFrames int, maxFrames int64, sink func(samples []float32) error) (int64, error) {
	if blockFrames <= 0 {
		return 0, fmt.Errorf("%w: block of %d frames", ErrInvalidConfig, blockFrames)
	}
	if len(s.mixers) == 0 {
		return 0, fmt.Errorf("%w: nothing to render", ErrInvalidConfig)
	}

	s.offline = true
	s.produced = make(chan struct{}, 1)
	s.consumed = make(chan struct{}, 1)

	if err := s.Start(); err != nil {
		return 0, err
	}

	total, err := s.render(ctx, blockFrames, maxFrames, sink)
	return total, errors.Join(err, s.Stop())
}

func (s *Session) render(ctx context.Context, blockFrames int, maxFrames int64, sink func([]float32) error) (int64, error) {
	policy := s.sched.Policy()
	bounded := !policy.Looping(s.sched) && !s.sched.Interactive()

	if bounded && s.cfg.TrimPadding {
		length := int64(math.Floor(s.sched.WarpedLength()*float64(s.cfg.Rate) + 0.5))
		if maxFrames <= 0 || length < maxFrames {
			maxFrames = length
		}
	}
	if maxFrames <= 0 && !bounded {
		return 0, ErrUnboundedRender
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		total    int64
		finished atomic.Bool
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.Produce(gctx)
		if errors.Is(err, context.Canceled) && finished.Load() {
			return nil
		}
		return err
	})

	g.Go(func() error {
		defer cancel()

		ch := s.cfg.Channels
		block := make([]float32, blockFrames*ch)
		wait := time.NewTimer(policy.SleepInterval(s.sched))
		defer wait.Stop()

		for {
			want := int64(blockFrames)
			if maxFrames > 0 {
				want = min(want, maxFrames-total)
			}
			if want <= 0 {
				break
			}

			n := s.Read(block[:want*int64(ch)])
			if n > 0 {
				if err := sink(block[:n*ch]); err != nil {
					return fmt.Errorf("render sink: %w", err)
				}
				total += int64(n)
			}
			if s.done.Load() {
				break
			}
			if n > 0 {
				continue
			}

			wait.Reset(policy.SleepInterval(s.sched))
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-s.produced:
			case <-wait.C:
			}
		}

		finished.Store(true)
		return nil
	})

	err := g.Wait()

	s.logger.Info().
		Int64("frames", total).
		Err(err).
		Msg("render finished")
	return total, err
}
