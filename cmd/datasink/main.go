package main

import (
	"errors"
	"fmt"
	"os"

	"datasink/internal/app"
	"datasink/internal/logging"
)

// main is the entry point for the datasink tool.
// It initializes and runs the AppRunner.
func main() {
	runner := app.NewAppRunner()

	// Execute the application logic using command-line arguments.
	// os.Args[1:] excludes the program name itself.
	err := runner.Run(os.Args[1:])
	if err != nil {
		// Determine if usage should be printed to stderr before logging.
		printUsage := errors.Is(err, app.ErrUsage) || errors.Is(err, app.ErrConfigNotFound) || errors.Is(err, app.ErrMissingArgs)

		if printUsage {
			fmt.Fprintln(os.Stderr, "")
			runner.Usage(os.Stderr)
		}

		// Ensure this critical error is seen even if the configured level
		// would suppress it.
		if logging.GetLevel() < logging.Error {
			logging.SetLevel(logging.Error)
		}
		logging.Logf(logging.Error, "Application execution failed: %v", err)

		os.Exit(1)
	}
}
