package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskboard/internal/api"
	"taskboard/internal/auth"
	"taskboard/internal/commands"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/recording"
)

// EnvFactory creates the command environment from config.
// Used to inject the backend during dispatch.
type EnvFactory func(ctx context.Context, cfg *config.Config, errOut io.Writer) (*commands.Env, error)

// NewEnv wires the HTTP client, the token file and the recording command
// from cfg. A 401 from the backend signs the user out.
func NewEnv(ctx context.Context, cfg *config.Config, errOut io.Writer) (*commands.Env, error) {
	store := auth.NewStore(cfg.Tokens())
	log := cfg.Logger(errOut)

	var holder *auth.Holder
	client := api.New(cfg.BaseURL, store,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(log),
		api.OnUnauthorized(func() {
			if err := holder.Invalidate(); err != nil {
				log.Debug("failed to clear token", "err", err)
			}
		}),
		api.OnLogout(func() {
			if err := store.Clear(); err != nil {
				log.Debug("failed to clear token", "err", err)
			}
		}),
	)
	holder = auth.NewHolder(store, client)

	return &commands.Env{
		Service:       client,
		Auth:          holder,
		In:            os.Stdin,
		Microphone:    recording.NewCommandMicrophone(cfg.RecordCommand),
		RecordOptions: []recording.Option{recording.WithDir(cfg.Dir)},
	}, nil
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  EnvFactory
}

// NewDispatcher creates a new dispatcher with the given registry and env factory.
// A nil factory means NewEnv.
func NewDispatcher(registry *commands.Registry, factory EnvFactory) *Dispatcher {
	if factory == nil {
		factory = NewEnv
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return reportFlagError(err, errOut)
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	if err := cfg.Load(); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	log := cfg.Logger(errOut)
	log.Debug("dispatch", "command", cmd.Name(), "config", cfg.Dir, "base_url", cfg.BaseURL)

	env, err := d.factory(ctx, cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}

	if cmd.NeedsAuth() {
		if !env.Auth.HasToken() {
			fmt.Fprintln(errOut, "error: not logged in (run: taskboard login)")
			return exitcode.AuthError
		}
		if state := env.Auth.Restore(ctx); state != auth.Authenticated {
			log.Debug("session restore failed", "state", state)
			fmt.Fprintln(errOut, "error: session expired (run: taskboard login)")
			return exitcode.AuthError
		}
	}

	return cmd.Run(ctx, cfg, env, positionalArgs, out, errOut)
}

// reportFlagError prints a flag parse error and returns the exit code.
func reportFlagError(err error, errOut io.Writer) int {
	errStr := err.Error()

	// Check for missing flag value
	if strings.Contains(errStr, "needs a value") || strings.Contains(errStr, "flag needs an argument") {
		parts := strings.Split(errStr, ":")
		flagPart := strings.TrimSpace(parts[len(parts)-1])
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagPart)
		return exitcode.UserError
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
	return exitcode.UserError
}
