package cli

import (
	"errors"
	"fmt"

	"github.com/andy/track/internal/service"
	"github.com/spf13/cobra"
)

// Exit codes returned by the track binary
const (
	ExitOK        = 0
	ExitUserError = 1
	ExitIOError   = 2
	ExitLockBusy  = 3
)

// ErrNoTerminal is returned by commands that need an interactive terminal
var ErrNoTerminal = errors.New("this command requires an interactive terminal")

// UsageError marks bad invocations: unknown commands, bad flags, wrong arguments
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a command to the process exit code
func ExitCode(err error) int {
	var usage *UsageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, service.ErrLockAcquisitionFailed):
		return ExitLockBusy
	case errors.Is(err, service.ErrAlreadyRunning),
		errors.Is(err, service.ErrNotRunning),
		errors.Is(err, ErrNoTerminal),
		errors.As(err, &usage):
		return ExitUserError
	default:
		return ExitIOError
	}
}

// noArgs rejects positional arguments as a usage error
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

// exactArgs requires n positional arguments
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}
