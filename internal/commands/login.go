package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
// Missing credentials are read from the input, one per line.
type LoginCmd struct {
	email    string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in with email and password" }
func (c *LoginCmd) Usage() string {
	return "taskboard login [--email <email>] [--password <password>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	// A stored token that still resolves to a user is reused.
	if env.Auth.HasToken() && env.Auth.Restore(ctx) == auth.Authenticated {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	p := newPrompter(env.In, errOut)
	email, err := p.value(c.email, "Email")
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	password, err := p.value(c.password, "Password")
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	res := env.Auth.Login(ctx, email, password)
	return finishAuth(cfg, res, out, errOut)
}

// finishAuth reports a login or registration result.
func finishAuth(cfg *config.Config, res auth.Result, out, errOut io.Writer) int {
	if !res.Success {
		output.FormatFieldErrors(errOut, res.Message, res.Errors)
		if len(res.Errors) > 0 {
			return exitcode.UserError
		}
		return exitcode.AuthError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
