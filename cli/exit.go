package cli

import "fmt"

// ExitError is an error that carries a specific process exit code, the
// way the teacher's cli.ExitError lets a RunE signal an exit code to
// main without main needing to know which subcommand produced it.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Exit codes for flowcorectl subcommands.
const (
	exitSuccess      = 0
	exitValidation   = 1
	exitRuntime      = 2
	exitFileNotFound = 3
	exitUnknownType  = 4
)
