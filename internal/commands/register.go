package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	name     string
	email    string
	password string
	confirm  string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *RegisterCmd) Usage() string {
	return "taskboard register [--name <name>] [--email <email>] [--password <password>] [--confirm <password>]"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.confirm, "confirm", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	p := newPrompter(env.In, errOut)
	var reg service.Registration
	var err error
	for _, f := range []struct {
		dst   *string
		v     string
		label string
	}{
		{&reg.Name, c.name, "Name"},
		{&reg.Email, c.email, "Email"},
		{&reg.Password, c.password, "Password"},
		{&reg.ConfirmPassword, c.confirm, "Confirm password"},
	} {
		if *f.dst, err = p.value(f.v, f.label); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	res := env.Auth.Register(ctx, reg)
	return finishAuth(cfg, res, out, errOut)
}
