package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

// fetchTask loads a task by the ID in args and reports failures on errOut.
// ok is false when the command must exit with code.
func fetchTask(ctx context.Context, svc service.Service, args []string, errOut io.Writer) (task service.Task, code int, ok bool) {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return service.Task{}, exitcode.UserError, false
	}
	task, err = svc.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			fmt.Fprintf(errOut, "error: task not found: %d\n", id)
			return service.Task{}, exitcode.UserError, false
		}
		return service.Task{}, reportError(errOut, err), false
	}
	return task, exitcode.Success, true
}

// reportError prints err and maps it to an exit code.
func reportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: %s (run: taskboard login)\n", err)
		return exitcode.AuthError
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrForbidden):
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
}

// reportRejection prints a 400/409 style rejection.
func reportRejection(errOut io.Writer, o service.Outcome) int {
	output.FormatFieldErrors(errOut, o.Message, o.Errors)
	return exitcode.UserError
}
