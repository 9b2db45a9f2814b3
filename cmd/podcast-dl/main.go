package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

const (
	exitFailure     = 1
	exitInterrupted = 130
)

// errInterrupted is returned when SIGINT or SIGTERM stopped the run.
var errInterrupted = errors.New("interrupted")

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, errInterrupted) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInterrupted), errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFailure
	}
}
