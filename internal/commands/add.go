package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/form"
	"taskboard/internal/output"
	"taskboard/internal/recording"
	"taskboard/internal/service"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// taskInput holds the flags shared by add and create.
type taskInput struct {
	desc   string
	status string
	assign string
	image  string
	audio  string
	record time.Duration
}

func (in *taskInput) register(fs *flag.FlagSet) {
	fs.StringVar(&in.desc, "desc", "", "")
	fs.StringVar(&in.desc, "d", "", "")
	fs.StringVar(&in.status, "status", "", "")
	fs.StringVar(&in.assign, "assign", "", "")
	fs.StringVar(&in.image, "image", "", "")
	fs.StringVar(&in.audio, "audio", "", "")
	fs.DurationVar(&in.record, "record", 0, "")
}

// AddCmd implements the add command.
type AddCmd struct {
	in taskInput
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskboard add [--desc <text>] [--status <status>] [--assign <user-id>] [--image <file>] [--audio <file.wav> | --record <duration>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) { c.in.register(fs) }

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, env, c.in, args, out, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	in taskInput
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return nil }
func (c *CreateCmd) Synopsis() string  { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string {
	return "taskboard create [add flags] <title...>"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) { c.in.register(fs) }

func (c *CreateCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, env, c.in, args, out, errOut)
}

// runAdd is the shared implementation for add and create commands.
func runAdd(ctx context.Context, cfg *config.Config, env *Env, in taskInput, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	if in.audio != "" && in.record > 0 {
		fmt.Fprintln(errOut, "error: cannot use both --audio and --record")
		return exitcode.UserError
	}

	task := service.NewTask{Title: title, Description: in.desc}
	if in.status != "" {
		status, err := service.ParseStatus(in.status)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		task.Status = status
	}
	assignee, err := parseUserID(in.assign)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	task.AssigneeID = assignee

	if errs := form.ValidateNewTask(task); !errs.Empty() {
		output.FormatFieldErrors(errOut, errs.Message(), errs.List())
		return exitcode.UserError
	}

	if in.image != "" {
		img, f, errs, err := openImage(in.image)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if !errs.Empty() {
			output.FormatFieldErrors(errOut, errs.Message(), errs.List())
			return exitcode.UserError
		}
		defer f.Close()
		task.Image = img
	}

	switch {
	case in.audio != "":
		f, err := os.Open(in.audio)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		defer f.Close()
		task.Audio = &service.Attachment{Name: "audio.wav", ContentType: recording.AudioContentType, Data: f}
	case in.record > 0:
		clip, err := record(ctx, cfg, env, in.record, errOut)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		defer clip.Discard()
		audio, f, err := clip.Attachment()
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		defer f.Close()
		task.Audio = audio
	}

	res, err := env.Service.CreateTask(ctx, task)
	if err != nil {
		return reportError(errOut, err)
	}
	if !res.Success {
		return reportRejection(errOut, res.Outcome)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// openImage opens and checks an image attachment. The caller closes the
// file when errs is empty.
func openImage(path string) (*service.Attachment, *os.File, form.FieldErrors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, nil, nil, err
	}
	contentType, errs := form.ValidateImage(head[:n], info.Size())
	if !errs.Empty() {
		f.Close()
		return nil, nil, errs, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, nil, err
	}
	return &service.Attachment{Name: filepath.Base(path), ContentType: contentType, Data: f}, f, nil, nil
}

// record captures up to d of audio, reporting progress on errOut.
// Recording stops by itself at the length limit.
func record(ctx context.Context, cfg *config.Config, env *Env, d time.Duration, errOut io.Writer) (*recording.Clip, error) {
	if env.Microphone == nil {
		return nil, recording.ErrMicrophone
	}
	opts := append([]recording.Option{recording.WithLogger(cfg.Logger(errOut))}, env.RecordOptions...)
	opts = append(opts, recording.WithObserver(func(s recording.State) {
		if cfg.Quiet {
			return
		}
		switch {
		case s.Phase == recording.Recording && s.Elapsed == 0:
			fmt.Fprintf(errOut, "recording (max %ds)...\n", recording.MaxSeconds)
		case recording.Warning(s):
			fmt.Fprintf(errOut, "%ds left\n", recording.Remaining(s))
		case s.AutoStopped:
			fmt.Fprintf(errOut, "recording stopped at %ds\n", recording.MaxSeconds)
		}
	}))
	rec := recording.NewController(env.Microphone, opts...)
	if err := rec.Start(ctx); err != nil {
		return nil, err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-rec.Done():
	case <-timer.C:
	case <-ctx.Done():
	}

	clip, err := rec.Stop()
	if errors.Is(err, recording.ErrNotRecording) {
		if clip = rec.Clip(); clip == nil {
			return nil, errors.New("recording failed")
		}
		return clip, nil
	}
	return clip, err
}
