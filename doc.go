// SPDX-License-Identifier: EPL-2.0

// Package playsched schedules audio playback over a region of a timeline.
//
// The scheduling core lives in the subpackages:
//   - warp maps between track time and real time under a speed curve;
//   - schedule holds the per-session state, the playback policies that size
//     each fetch and decide when playback ends, and the TimeQueue that tells
//     the output callback which track time it is playing;
//   - engine drives a schedule with a producer goroutine and an output
//     callback, live or offline;
//   - mix sums decoded tracks for the engine.
//
// This package ties them to the format decoders for the common case of
// rendering a region to a WAV file:
//
//	f, _ := os.Create("out.wav")
//	defer f.Close()
//
//	res, err := playsched.RenderWAV(ctx, f, playsched.Config{
//		Rate:     44100,
//		Channels: 2,
//		T0:       12,
//		T1:       20,
//		Envelope: env, // optional time warp
//		Tracks: []playsched.Track{
//			{Path: "drums.wav", Gain: 1},
//			{Path: "vocals.ogg", Gain: 0.8},
//		},
//	})
//
// A region with T1 before T0 plays backwards. Looping renders need MaxSeconds.
//
// # Formats
//
// DefaultRegistry decodes WAV, MP3, Ogg Vorbis and AIFF by file extension.
// Every decoder can seek, which looping and seeking rely on.
package playsched
