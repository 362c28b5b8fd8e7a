// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1 Layer III audio with
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo, so the returned source reports two
// channels even for mono files. Samples are converted to float32 in
// [-1.0, 1.0):
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// The decoder indexes every MP3 frame when it opens the stream. That makes
// the source an audio.Seeker and audio.Sized, which looping and scrubbing
// playback depend on. Readers that cannot seek are buffered in memory so
// the index can be built.
package mp3
