// SPDX-License-Identifier: EPL-2.0

package playsched

import "errors"

var (
	ErrNoTracks      = errors.New("no tracks to render")
	ErrInvalidConfig = errors.New("invalid render config")
)
