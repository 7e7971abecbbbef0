package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
	"taskboard/internal/taskitem"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return []string{"mv"} }
func (c *StatusCmd) Synopsis() string  { return "Change the status of a task" }
func (c *StatusCmd) Usage() string     { return "taskboard status <id> todo|in_progress|done" }
func (c *StatusCmd) NeedsAuth() bool   { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		if len(args) == 0 {
			fmt.Fprintln(errOut, "error: task reference required")
		} else {
			fmt.Fprintln(errOut, "error: status required")
		}
		return exitcode.UserError
	}
	status, err := service.ParseStatus(args[1])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return changeStatus(ctx, cfg, env, args[:1], status, out, errOut)
}

// changeStatus moves the task in args to status.
func changeStatus(ctx context.Context, cfg *config.Config, env *Env, args []string, status service.Status, out, errOut io.Writer) int {
	task, code, ok := fetchTask(ctx, env.Service, args, errOut)
	if !ok {
		return code
	}
	if !taskitem.CanEdit(env.Session(), task) {
		fmt.Fprintf(errOut, "error: not allowed to edit task %d\n", task.ID)
		return exitcode.UserError
	}

	res, err := taskitem.NewEditor(env.Service, nil, nil).ChangeStatus(ctx, task.ID, status)
	if err != nil {
		return reportError(errOut, err)
	}
	if !res.Success {
		return reportRejection(errOut, res.Outcome)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
