package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
)

func init() {
	Register(&UsersCmd{})
}

// UsersCmd implements the users command: every user, or one by ID.
type UsersCmd struct{}

func (c *UsersCmd) Name() string      { return "users" }
func (c *UsersCmd) Aliases() []string { return nil }
func (c *UsersCmd) Synopsis() string  { return "Print users (assignment candidates)" }
func (c *UsersCmd) Usage() string     { return "taskboard users [common flags] [<user-id>]" }
func (c *UsersCmd) NeedsAuth() bool   { return true }

func (c *UsersCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UsersCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		id, err := strconv.Atoi(args[0])
		if err != nil || id < 1 {
			fmt.Fprintf(errOut, "error: invalid user id: %s\n", args[0])
			return exitcode.UserError
		}
		user, err := env.Service.GetUser(ctx, id)
		if err != nil {
			return reportError(errOut, err)
		}
		output.FormatUser(out, user)
		return exitcode.Success
	}

	users, err := env.Service.ListUsers(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	for _, u := range users {
		output.FormatUser(out, u)
	}
	if len(users) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no users found")
	}
	return exitcode.Success
}

