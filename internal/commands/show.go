package commands

import (
	"context"
	"flag"
	"io"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd prints a single task.
type ShowCmd struct {
	now func() time.Time
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return []string{"get"} }
func (c *ShowCmd) Synopsis() string  { return "Show a task" }
func (c *ShowCmd) Usage() string     { return "taskboard show <id>" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code, ok := fetchTask(ctx, env.Service, args, errOut)
	if !ok {
		return code
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	output.FormatTaskDetail(out, task, now())
	return exitcode.Success
}
