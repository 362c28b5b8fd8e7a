// SPDX-License-Identifier: EPL-2.0

package warp

import "errors"

var (
	// ErrNonPositiveSpeed indicates a speed bound that is zero or negative
	ErrNonPositiveSpeed = errors.New("speed bounds must be positive")

	// ErrInvertedBounds indicates MinSpeed > MaxSpeed
	ErrInvertedBounds = errors.New("minimum speed exceeds maximum speed")

	// ErrUnsortedPoints indicates control points that are not strictly increasing in time
	ErrUnsortedPoints = errors.New("envelope points must be strictly increasing in time")
)
