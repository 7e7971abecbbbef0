// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/recording"
	"taskboard/internal/service"
)

// Env carries the collaborators a command runs against.
type Env struct {
	// Service is the backend.
	Service service.Service

	// Auth owns the session. For commands with NeedsAuth it has already
	// been restored and is authenticated.
	Auth *auth.Holder

	// In is read for prompts (passwords, confirmations).
	In io.Reader

	// Microphone is used by add --record.
	Microphone recording.Microphone

	// RecordOptions configure the recording controller.
	RecordOptions []recording.Option
}

// Session returns the current session, or the zero session.
func (e *Env) Session() service.Session {
	if e == nil || e.Auth == nil {
		return service.Session{}
	}
	sess, _ := e.Auth.Session()
	return sess
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires authentication.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, settings).
	// env is nil for help and version.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int
}
