package ik

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	// ErrInvalidConfiguration is wrapped by every error Search and NewSolver return. Such errors are reported before any
	// iteration runs and retrying them unchanged will fail the same way.
	ErrInvalidConfiguration = errors.New("invalid inverse kinematics configuration")

	// ErrTimedOut is returned by Result.Err when the timeout elapsed before a solution was found.
	ErrTimedOut = errors.New("inverse kinematics timed out")

	// ErrExhausted is returned by Result.Err when every descent degenerated and no restarts remained.
	ErrExhausted = errors.New("inverse kinematics could not find a solution")

	errNoTargets = errors.New("no target poses given")
)

func newConfigurationError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfiguration, format, args...)
}

// asConfigurationError marks an error from model or group resolution as a configuration error while keeping it
// inspectable with errors.Is.
func asConfigurationError(err error) error {
	if err == nil || errors.Is(err, ErrInvalidConfiguration) {
		return err
	}
	return multierr.Combine(ErrInvalidConfiguration, err)
}

func newTargetCountError(actual, expected int) error {
	return newConfigurationError("expected %d target poses, one per tip link, but got %d", expected, actual)
}

func newSeedLengthError(actual, expected int) error {
	return newConfigurationError("seed has %d joint values but the model has %d", actual, expected)
}

func newConsistencyLimitsError(actual, expected int) error {
	return newConfigurationError("expected %d consistency limits, one per group joint, but got %d", expected, actual)
}
