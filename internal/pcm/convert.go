// SPDX-License-Identifier: EPL-2.0

// Package pcm converts between float samples and the integer PCM of the
// go-audio codecs, and adapts their decoders to audio.Source.
package pcm

import "math"

// Supported reports whether bitDepth is a signed PCM depth this package
// handles.
func Supported(bitDepth int) bool {
	return bitDepth == 16 || bitDepth == 24 || bitDepth == 32
}

// Scale returns the magnitude of the most negative sample at bitDepth, the
// divisor that maps integer PCM onto [-1, 1). Unknown depths use 16 bits.
func Scale(bitDepth int) float32 {
	switch bitDepth {
	case 16, 24, 32:
		return float32(uint64(1) << (bitDepth - 1))
	default:
		return 32768.0
	}
}

// IntToFloat converts a signed integer sample to a float in [-1, 1).
func IntToFloat(v, bitDepth int) float32 {
	return float32(v) / Scale(bitDepth)
}

// FloatToInt converts a float sample to a signed integer at bitDepth,
// clamping to [-1, 1] and rounding to nearest. Positive full scale is one
// step below the magnitude of negative full scale.
func FloatToInt(x float32, bitDepth int) int {
	switch {
	case x != x:
		x = 0
	case x > 1:
		x = 1
	case x < -1:
		x = -1
	}

	scale := float64(Scale(bitDepth))
	if x >= 0 {
		return int(math.Round(float64(x) * (scale - 1)))
	}
	return int(math.Round(float64(x) * scale))
}

// FloatsToInts converts src into dst, which must be at least as long.
func FloatsToInts(dst []int, src []float32, bitDepth int) {
	for i, v := range src {
		dst[i] = FloatToInt(v, bitDepth)
	}
}
