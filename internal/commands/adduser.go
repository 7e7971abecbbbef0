package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/form"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

func init() {
	Register(&AddUserCmd{})
}

// AddUserCmd creates a user account on behalf of the signed-in user.
type AddUserCmd struct {
	name     string
	email    string
	password string
}

func (c *AddUserCmd) Name() string      { return "adduser" }
func (c *AddUserCmd) Aliases() []string { return []string{"createuser"} }
func (c *AddUserCmd) Synopsis() string  { return "Create a user account" }
func (c *AddUserCmd) Usage() string {
	return "taskboard adduser [--name <name>] [--email <email>] [--password <password>]"
}
func (c *AddUserCmd) NeedsAuth() bool { return true }

func (c *AddUserCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *AddUserCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	p := newPrompter(env.In, errOut)
	var reg service.Registration
	var err error
	if reg.Name, err = p.value(c.name, "Name"); err == nil {
		if reg.Email, err = p.value(c.email, "Email"); err == nil {
			reg.Password, err = p.value(c.password, "Password")
		}
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if errs := form.ValidateRegistration(reg, false); !errs.Empty() {
		output.FormatFieldErrors(errOut, errs.Message(), errs.List())
		return exitcode.UserError
	}

	res, err := env.Service.CreateUser(ctx, reg)
	if err != nil {
		return reportError(errOut, err)
	}
	if !res.Success {
		return reportRejection(errOut, res.Outcome)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
		if res.User != nil {
			output.FormatUser(out, *res.User)
		}
	}
	return exitcode.Success
}
