package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/notify"
	"taskboard/internal/output"
	"taskboard/internal/tasklist"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskboard` (no args) and `taskboard list`.
type ListCmd struct {
	page   int
	limit  int
	filter string
	query  string
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskboard list [--page <n>] [--limit 1|2|5|10] [--filter all|created|assigned] [--query <?page=..>]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.page, "page", 0, "")
	fs.IntVar(&c.limit, "limit", 0, "")
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.query, "query", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	loc := tasklist.NewMemoryLocation("")
	list := tasklist.NewList(env.Service, loc, tasklist.DefaultQuery())
	if err := c.applyFlags(ctx, list); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	cfg.Logger(errOut).Debug("listing tasks", "query", loc.Query(), "history", loc.HistoryLen())
	if err := list.Refresh(ctx); err != nil {
		return reportError(errOut, err)
	}

	snap := list.Snapshot()
	if snap.Total == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	visible := list.Visible(env.Session())
	for _, task := range visible {
		output.FormatTask(out, task)
	}
	if cfg.Quiet {
		return exitcode.Success
	}
	if len(visible) == 0 {
		fmt.Fprintln(out, "no matching tasks on this page")
	}

	fmt.Fprintln(out, output.ListSeparator)
	output.FormatStats(out, tasklist.Counts(visible))
	if pages := tasklist.Pages(snap.Query.Page, snap.TotalPages); len(pages) > 1 {
		output.FormatPages(out, pages, snap.Query.Page)
	}
	if s := loc.Query(); s != "" {
		fmt.Fprintf(out, "Query: ?%s\n", s)
	}

	// Best effort: the list is still useful without the badge.
	if n, err := env.Service.UnreadNotificationCount(ctx); err == nil && n > 0 {
		fmt.Fprintf(out, "Notifications: %s\n", notify.Badge(n))
	}
	return exitcode.Success
}

// applyFlags loads --query into the list, then applies the explicit flags
// the way an interactive change would: a new limit or filter goes back to
// page 1, and an explicit --page is applied last. Nothing is fetched yet.
func (c *ListCmd) applyFlags(ctx context.Context, list *tasklist.List) error {
	if c.query != "" {
		q, err := tasklist.ParseQueryString(c.query)
		if err != nil {
			return err
		}
		if err := list.Apply(ctx, q); err != nil {
			return err
		}
	}
	if c.page < 0 {
		return fmt.Errorf("invalid page: %d", c.page)
	}
	if c.limit != 0 {
		if err := list.SetLimit(ctx, c.limit); err != nil {
			return err
		}
	}
	if c.filter != "" {
		if err := list.SetFilter(ctx, tasklist.Filter(c.filter)); err != nil {
			return err
		}
	}
	if c.page > 0 {
		return list.SetPage(ctx, c.page)
	}
	return nil
}
