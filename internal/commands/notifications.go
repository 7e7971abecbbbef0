package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/notify"
	"taskboard/internal/output"
)

func init() {
	Register(&NotificationsCmd{})
	Register(&ReadCmd{})
}

// NotificationsCmd implements the notifications command.
type NotificationsCmd struct {
	watch bool
	count bool
}

func (c *NotificationsCmd) Name() string      { return "notifications" }
func (c *NotificationsCmd) Aliases() []string { return []string{"notifs"} }
func (c *NotificationsCmd) Synopsis() string  { return "Print notifications" }
func (c *NotificationsCmd) Usage() string {
	return "taskboard notifications [--count] [--watch]"
}
func (c *NotificationsCmd) NeedsAuth() bool { return true }

func (c *NotificationsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.watch, "watch", false, "")
	fs.BoolVar(&c.count, "count", false, "")
}

func (c *NotificationsCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if c.watch {
		return c.runWatch(ctx, cfg, env, out, errOut)
	}

	if c.count {
		n, err := env.Service.UnreadNotificationCount(ctx)
		if err != nil {
			return reportError(errOut, err)
		}
		fmt.Fprintln(out, n)
		return exitcode.Success
	}

	notifications, err := env.Service.ListNotifications(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	now := time.Now()
	for _, n := range notifications {
		output.FormatNotification(out, n, now)
	}
	if len(notifications) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no notifications")
	}
	return exitcode.Success
}

// runWatch prints the unread badge whenever it changes, until interrupted
// or signed out.
func (c *NotificationsCmd) runWatch(ctx context.Context, cfg *config.Config, env *Env, out, errOut io.Writer) int {
	active := func() bool { return env.Auth.State() == auth.Authenticated }
	poller := notify.NewPoller(env.Service, cfg.PollInterval, active, cfg.Logger(errOut))

	last := -1
	poller.Run(ctx, func(n int) {
		if n == last {
			return
		}
		last = n
		badge := notify.Badge(n)
		if badge == "" {
			badge = "0"
		}
		fmt.Fprintf(out, "unread: %s\n", badge)
	})

	if !active() {
		fmt.Fprintln(errOut, "error: session expired (run: taskboard login)")
		return exitcode.AuthError
	}
	return exitcode.Success
}

// ReadCmd marks notifications read.
type ReadCmd struct {
	all bool
}

func (c *ReadCmd) Name() string      { return "read" }
func (c *ReadCmd) Aliases() []string { return nil }
func (c *ReadCmd) Synopsis() string  { return "Mark notifications read" }
func (c *ReadCmd) Usage() string     { return "taskboard read --all | <notification-id>" }
func (c *ReadCmd) NeedsAuth() bool   { return true }

func (c *ReadCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.all, "all", false, "")
}

func (c *ReadCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	var err error
	switch {
	case c.all:
		err = env.Service.MarkAllNotificationsRead(ctx)
	case len(args) == 0:
		fmt.Fprintln(errOut, "error: notification id required (or --all)")
		return exitcode.UserError
	default:
		id, perr := ParseTaskID(args)
		if perr != nil {
			fmt.Fprintf(errOut, "error: invalid notification id: %s\n", args[0])
			return exitcode.UserError
		}
		err = env.Service.MarkNotificationRead(ctx, id)
	}
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
