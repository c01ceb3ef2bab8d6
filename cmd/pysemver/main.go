package main

import (
	"fmt"
	"os"

	"pysemver/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(exitFailure)
	}
	os.Exit(exitStatus)
}

// formatError renders err with its code and the first suggested fix, if any.
func formatError(err error) string {
	e, ok := errors.As(err)
	if !ok {
		return "Error: " + err.Error()
	}
	msg := "Error: " + e.Error()
	for _, fix := range e.SuggestedFixes {
		switch {
		case fix.Command != "":
			msg += fmt.Sprintf("\n  hint: %s (%s)", fix.Description, fix.Command)
		case fix.Description != "":
			msg += "\n  hint: " + fix.Description
		}
	}
	return msg
}
