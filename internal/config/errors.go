// SPDX-License-Identifier: EPL-2.0

package config

import "errors"

var (
	ErrInvalidFormat  = errors.New("invalid output format")
	ErrInvalidRegion  = errors.New("invalid play region")
	ErrNoTracks       = errors.New("session has no tracks")
	ErrInvalidTrack   = errors.New("invalid track")
	ErrUnboundedLoop  = errors.New("looping session needs max_seconds")
	ErrInvalidSession = errors.New("invalid session file")
)
