package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
)

func init() {
	Register(&ConfigCmd{})
}

// ConfigCmd reads and writes config.yaml settings.
type ConfigCmd struct{}

func (c *ConfigCmd) Name() string      { return "config" }
func (c *ConfigCmd) Aliases() []string { return nil }
func (c *ConfigCmd) Synopsis() string  { return "Show or change settings" }
func (c *ConfigCmd) Usage() string {
	return "taskboard config [get <key> | set <key> <value>]"
}
func (c *ConfigCmd) NeedsAuth() bool { return false }

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	settings := map[string]string{
		"base_url":       cfg.BaseURL,
		"timeout":        cfg.Timeout.String(),
		"poll_interval":  cfg.PollInterval.String(),
		"record_command": cfg.RecordCommand,
	}
	keys := []string{"base_url", "timeout", "poll_interval", "record_command"}

	if len(args) == 0 {
		for _, k := range keys {
			fmt.Fprintf(out, "%s: %s\n", k, settings[k])
		}
		return exitcode.Success
	}

	switch args[0] {
	case "get":
		if len(args) != 2 {
			fmt.Fprintln(errOut, "error: usage: taskboard config get <key>")
			return exitcode.UserError
		}
		v, ok := settings[args[1]]
		if !ok {
			fmt.Fprintf(errOut, "error: unknown setting: %s\n", args[1])
			return exitcode.UserError
		}
		fmt.Fprintln(out, v)
		return exitcode.Success
	case "set":
		if len(args) != 3 {
			fmt.Fprintln(errOut, "error: usage: taskboard config set <key> <value>")
			return exitcode.UserError
		}
		if err := cfg.Set(args[1], args[2]); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if !cfg.Quiet {
			fmt.Fprintln(out, "ok")
		}
		return exitcode.Success
	}
	fmt.Fprintf(errOut, "error: unknown config action: %s\n", args[0])
	return exitcode.UserError
}
