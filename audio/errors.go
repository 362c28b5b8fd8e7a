// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrInvalidChannels is returned for a channel count below one.
	ErrInvalidChannels = errors.New("channel count must be positive")

	// ErrNotSeekable is returned when seeking a source that cannot seek.
	ErrNotSeekable = errors.New("source is not seekable")

	// ErrUnknownFormat is returned by Registry.Decode for an unregistered key.
	ErrUnknownFormat = errors.New("unknown audio format")
)
