// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio with github.com/jfreymuth/oggvorbis.
//
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// Samples come out interleaved in the file's own channel layout, already
// clamped to [-1.0, 1.0]. Reads always end on a frame boundary, so a buffer
// shorter than one frame reads nothing.
//
// The returned source implements audio.Seeker and audio.Sized. Both rely on
// the Ogg page granule positions, which oggvorbis can only scan on seekable
// input, so other readers are buffered in memory first.
package vorbis
