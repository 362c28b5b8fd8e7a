// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes integer PCM WAV files on top of
// github.com/go-audio/wav.
//
// The Decoder accepts 16, 24 and 32 bit PCM with any channel count and
// sample rate. The source it returns also implements audio.Seeker and
// audio.Sized, so it can be looped and scrubbed by the playback scheduler:
//
//	f, _ := os.Open("take.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
// Seeking re-reads the file from the start of the data chunk. Readers that
// are not an io.ReadSeeker are buffered in memory first.
//
// The Encoder writes interleaved float32 frames and patches the RIFF sizes
// on Close, which is why it needs an io.WriteSeeker such as *os.File:
//
//	enc, err := wav.NewEncoder(out, 48000, 2, 24)
//	...
//	err = enc.WriteSamples(block)
//	...
//	err = enc.Close()
package wav
