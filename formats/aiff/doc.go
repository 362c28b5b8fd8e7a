// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes big-endian AIFF audio using github.com/go-audio/aiff.
//
// 16, 24 and 32 bit PCM is supported with any channel count. Samples are
// normalized to float32 in [-1.0, 1.0):
//
//	src, err := aiff.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//
// The returned source also implements audio.Seeker, by re-reading from the
// sound data chunk, and audio.Sized, from the frame count in the COMM chunk.
package aiff
