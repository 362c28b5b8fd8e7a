// SPDX-License-Identifier: EPL-2.0

package mix

import "errors"

var (
	ErrNoTracks       = errors.New("mixer has no tracks")
	ErrInvalidFormat  = errors.New("invalid mixer output format")
	ErrInvalidSpeed   = errors.New("mixer speed must be positive")
	ErrTrackNotSeeker = errors.New("track source cannot seek")
)
