package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/keywarden/keywarden/internal/cmd"
)

func main() {
	// Process-wide panic funnel: any escaped panic is reported once and
	// turns into a non-zero exit instead of a bare crash.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "keywarden: fatal error: %v\n%s", r, debug.Stack())
			os.Exit(2)
		}
	}()

	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "keywarden: %v\n", err)
		os.Exit(1)
	}
}
