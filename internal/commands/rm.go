package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/taskitem"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	yes bool
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskboard rm [--yes] <id>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code, ok := fetchTask(ctx, env.Service, args, errOut)
	if !ok {
		return code
	}

	var confirm taskitem.Confirmer = taskitem.AlwaysConfirm{}
	if !c.yes {
		if env.In == nil {
			fmt.Fprintln(errOut, "error: confirmation required (use --yes)")
			return exitcode.UserError
		}
		confirm = taskitem.PromptConfirmer{In: env.In, Out: errOut}
	}

	deleted, err := taskitem.NewEditor(env.Service, nil, confirm).Delete(ctx, task.ID)
	if err != nil {
		return reportError(errOut, err)
	}
	if !deleted {
		if !cfg.Quiet {
			fmt.Fprintln(out, "cancelled")
		}
		return exitcode.Success
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
