package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
	"taskboard/internal/taskitem"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Fields without a flag keep their
// current value.
type EditCmd struct {
	title  *string
	desc   *string
	status *string
	assign *string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskboard edit [--title <title>] [--desc <text>] [--status <status>] [--assign <user-id>] <id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.desc, c.status, c.assign = nil, nil, nil, nil
	fs.Func("title", "", func(v string) error { c.title = &v; return nil })
	fs.Func("desc", "", func(v string) error { c.desc = &v; return nil })
	fs.Func("status", "", func(v string) error { c.status = &v; return nil })
	fs.Func("assign", "", func(v string) error { c.assign = &v; return nil })
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if c.title == nil && c.desc == nil && c.status == nil && c.assign == nil {
		fmt.Fprintln(errOut, "error: nothing to change (use --title, --desc, --status or --assign)")
		return exitcode.UserError
	}

	task, code, ok := fetchTask(ctx, env.Service, args, errOut)
	if !ok {
		return code
	}
	if !taskitem.CanEdit(env.Session(), task) {
		fmt.Fprintf(errOut, "error: not allowed to edit task %d\n", task.ID)
		return exitcode.UserError
	}

	patch := service.TaskPatch{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		AssigneeID:  task.AssigneeID,
	}
	if c.title != nil {
		patch.Title = *c.title
	}
	if c.desc != nil {
		patch.Description = *c.desc
	}
	if c.status != nil {
		status, err := service.ParseStatus(*c.status)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.Status = status
	}
	if c.assign != nil {
		assignee, err := parseUserID(*c.assign)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.AssigneeID = assignee
	}

	res, err := taskitem.NewEditor(env.Service, nil, nil).Edit(ctx, task.ID, patch)
	if err != nil {
		return reportError(errOut, err)
	}
	if !res.Success {
		return reportRejection(errOut, res.Outcome)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
		if res.Task != nil {
			output.FormatTask(out, *res.Task)
		}
	}
	return exitcode.Success
}
