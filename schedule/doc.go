// SPDX-License-Identifier: EPL-2.0

// Package schedule decides what part of the timeline plays next and keeps
// track of where playback currently is.
//
// A playback session involves three goroutines:
//   - the main goroutine starts and stops the session, polls the position for
//     display and asks for seeks;
//   - the producer wakes every Policy.SleepInterval, asks the Policy for a
//     Slice sized to the free space of the output ring buffer, pulls that many
//     frames from its mixers and stamps the TimeQueue;
//   - the consumer is the audio device callback. It drains the ring buffer,
//     advances the TimeQueue head and publishes the track time it reached.
//
// None of the methods used by the producer or the consumer block, allocate or
// take a lock.
//
// # Schedule
//
// Schedule holds the region [T0, T1] being played, the real-time accounting
// used to size slices, and the active Policy:
//
//	s := schedule.NewSchedule(logger)
//	s.Init(2, 10, schedule.Options{PlayLooped: true}, nil)
//	s.Policy().Initialize(s, 44100)
//	s.TimeQueue.Allocate(ringFrames)
//	s.TimeQueue.Prime(s.T0())
//
// T1 < T0 plays the region backwards. With Options.Envelope the region is time
// warped, so the real length of a pass differs from T1 - T0.
//
// # Policies
//
// A Policy is created fresh for every session. StraightPolicy plays once and
// pads a little trailing silence so the consumer can see the end.
// LoopingPolicy wraps around forever. ScrubbingPolicy serves the interactive
// scrub and play-at-speed modes. Options.PolicyFactory supplies any other
// variant.
//
// # TimeQueue
//
// The TimeQueue stores one track time for every TimeQueueGrainSize frames
// written to the ring buffer. The producer owns the tail and the consumer owns
// the head. The queue trusts the ring buffer's flow control and never checks
// for space itself.
//
// # Recording
//
// RecordingSchedule keeps the punch-in bookkeeping for recording during
// playback: pre-roll, latency correction and the crossfade at the boundary.
package schedule
