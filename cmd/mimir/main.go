package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/validation"
)

// Exit codes. Scripts can tell a missing note or group, a read-only notes
// directory and rejected input apart from other failures.
const (
	exitFailure  = 1
	exitNotFound = 2
	exitReadOnly = 3
	exitInvalid  = 4
)

func main() {
	Execute()
}

func exitCode(err error) int {
	var invalid *validation.Error
	switch {
	case errors.Is(err, core.ErrNotFound):
		return exitNotFound
	case errors.Is(err, core.ErrReadOnly):
		return exitReadOnly
	case errors.As(err, &invalid):
		return exitInvalid
	default:
		return exitFailure
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(exitCode(err))
}
