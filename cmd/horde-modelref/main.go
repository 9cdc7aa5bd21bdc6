// Command horde-modelref diffs, validates and edits the image model reference.
//
// Configuration is layered: defaults, then horde-modelref.yaml in the user
// config directory (or the file given with --config), then HORDE_MODELREF_*
// environment variables, then flags. For example:
//   - HORDE_MODELREF_OUTPUT: text, json or yaml
//   - HORDE_MODELREF_URL_CHECK_INTERVAL: delay between URL probes, e.g. 250ms
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	modelref "github.com/Haidra-Org/AI-Horde-image-model-reference"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid command line arguments.
	ExitInvalidArgs = 2

	// ExitParseError indicates a reference file is not a JSON object.
	ExitParseError = 3

	// ExitSchemaError indicates a record does not match the schema or a name is duplicated.
	ExitSchemaError = 4

	// ExitValidationFailed indicates structural validation reported problems.
	ExitValidationFailed = 5

	// ExitURLCheckFailed indicates at least one download URL did not resolve.
	ExitURLCheckFailed = 6

	// ExitStorageError indicates a filesystem operation failed.
	ExitStorageError = 7
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := modelref.NewCommand(modelref.CommandConfig{})
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(exitCodeFromError(err))
	}
}

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, modelref.ErrInvalidArgument):
		return ExitInvalidArgs
	case errors.Is(err, modelref.ErrMissingVersionIdentifier):
		return ExitInvalidArgs
	case errors.Is(err, modelref.ErrParse):
		return ExitParseError
	case errors.Is(err, modelref.ErrSchema):
		return ExitSchemaError
	case errors.Is(err, modelref.ErrDuplicateKey):
		return ExitSchemaError
	case errors.Is(err, modelref.ErrValidation):
		return ExitValidationFailed
	case errors.Is(err, modelref.ErrURLCheck):
		return ExitURLCheckFailed
	case errors.Is(err, modelref.ErrStorage):
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}
