package commands

import (
	"context"
	"flag"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/service"
)

func init() {
	Register(&DoneCmd{})
	Register(&StartCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task done" }
func (c *DoneCmd) Usage() string     { return "taskboard done <id>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return changeStatus(ctx, cfg, env, args, service.StatusDone, out, errOut)
}

// StartCmd moves a task to in progress.
type StartCmd struct{}

func (c *StartCmd) Name() string      { return "start" }
func (c *StartCmd) Aliases() []string { return nil }
func (c *StartCmd) Synopsis() string  { return "Mark a task in progress" }
func (c *StartCmd) Usage() string     { return "taskboard start <id>" }
func (c *StartCmd) NeedsAuth() bool   { return true }

func (c *StartCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StartCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return changeStatus(ctx, cfg, env, args, service.StatusInProgress, out, errOut)
}
