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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskboard help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskboard                                       List tasks (first page)
  taskboard list [--page <n>] [--limit <n>] [--filter all|created|assigned] [--query <q>]
  taskboard show <id>
  taskboard add [--desc <text>] [--status <status>] [--assign <user-id>]
                [--image <file>] [--audio <file.wav> | --record <duration>] <title...>
  taskboard create [add flags] <title...>
  taskboard edit [--title <title>] [--desc <text>] [--status <status>] [--assign <user-id>] <id>
  taskboard status <id> todo|in_progress|done
  taskboard start <id>
  taskboard done <id>
  taskboard rm [--yes] <id>
  taskboard users [<user-id>]
  taskboard adduser [--name <name>] [--email <email>] [--password <password>]
  taskboard notifications [--count] [--watch]
  taskboard read --all | <notification-id>
  taskboard login [--email <email>] [--password <password>]
  taskboard register [--name <name>] [--email <email>] [--password <password>] [--confirm <password>]
  taskboard logout
  taskboard whoami
  taskboard config [get <key> | set <key> <value>]
  taskboard help
  taskboard version

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
