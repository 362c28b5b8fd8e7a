// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid session config")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrNotStarted      = errors.New("session not started")
	ErrSeekNotAllowed  = errors.New("seeking is not allowed in this play mode")
	ErrUnboundedRender = errors.New("render of a looping or interactive session needs a frame limit")
)
