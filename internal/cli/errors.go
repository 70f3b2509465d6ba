package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	apperrors "github.com/kbukum/apicontract/errors"
)

// ErrUsage matches errors caused by invalid arguments or flags.
var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func (e usageError) Error() string { return e.msg }

func (e usageError) Is(target error) bool { return target == ErrUsage }

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}

// PrintError writes application errors as their JSON envelope and anything
// else as a single line.
func PrintError(w io.Writer, err error) {
	if app, ok := apperrors.AsAppError(err); ok {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(app.ToResponse()); encErr == nil {
			return
		}
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}
