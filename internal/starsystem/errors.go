package starsystem

import (
	"errors"

	"github.com/san-kum/starsys/internal/dynamo"
)

var (
	ErrInvalidBodies    = errors.New("starsystem: invalid bodies")
	ErrInvalidStep      = errors.New("starsystem: step size must be positive")
	ErrInvalidParameter = errors.New("starsystem: invalid parameter")
	ErrUnknownForce     = errors.New("starsystem: unknown force routine")
	ErrDiverged         = errors.New("starsystem: state diverged (NaN or Inf)")

	// ErrUnknownMethod is returned for an integration method with no implementation.
	ErrUnknownMethod = dynamo.ErrUnknownMethod
)
