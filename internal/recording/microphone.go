package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/faiface/beep"
)

// ErrMicrophone is returned when the audio input cannot be opened.
var ErrMicrophone = errors.New("microphone unavailable")

// DefaultFormat is 16 kHz mono 16-bit PCM.
var DefaultFormat = beep.Format{SampleRate: 16000, NumChannels: 1, Precision: 2}

// Microphone is an audio input producing signed 16-bit little-endian PCM.
type Microphone interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Format() beep.Format
}

// CommandMicrophone records by running a capture command (arecord by
// default) and reading raw PCM from its stdout.
type CommandMicrophone struct {
	Command string
}

// NewCommandMicrophone returns a microphone for command.
func NewCommandMicrophone(command string) *CommandMicrophone {
	return &CommandMicrophone{Command: command}
}

// Format reads the sample rate (-r) and channel count (-c) from the command
// line, falling back to DefaultFormat.
func (m *CommandMicrophone) Format() beep.Format {
	f := DefaultFormat
	args := strings.Fields(m.Command)
	for i := 0; i+1 < len(args); i++ {
		n, err := strconv.Atoi(args[i+1])
		if err != nil || n <= 0 {
			continue
		}
		switch args[i] {
		case "-r", "--rate":
			f.SampleRate = beep.SampleRate(n)
		case "-c", "--channels":
			if n <= 2 {
				f.NumChannels = n
			}
		}
	}
	return f
}

// Open starts the capture command.
func (m *CommandMicrophone) Open(ctx context.Context) (io.ReadCloser, error) {
	args := strings.Fields(m.Command)
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no record command configured", ErrMicrophone)
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicrophone, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicrophone, err)
	}
	return &commandStream{cmd: cmd, stdout: stdout}, nil
}

type commandStream struct {
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	killOnce sync.Once
	waitOnce sync.Once
}

// Read reads PCM from the capture process. The process is reaped once its
// output ends, so Wait never runs while a read is in progress.
func (s *commandStream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err != nil {
		s.waitOnce.Do(func() { _ = s.cmd.Wait() })
	}
	return n, err
}

// Close stops the capture process. The reader then sees the end of its
// output and reaps the process.
func (s *commandStream) Close() error {
	s.killOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
	})
	return nil
}

// PCMMicrophone plays back raw PCM from a reader in tests. The reader is
// drained on stop unless it is also an io.Closer, in which case it is closed.
type PCMMicrophone struct {
	Reader io.Reader
	PCM    beep.Format

	// Err, when set, is returned by Open.
	Err error
}

// Format implements Microphone.
func (m *PCMMicrophone) Format() beep.Format {
	if m.PCM.SampleRate == 0 {
		return DefaultFormat
	}
	return m.PCM
}

// Open implements Microphone.
func (m *PCMMicrophone) Open(ctx context.Context) (io.ReadCloser, error) {
	if m.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicrophone, m.Err)
	}
	return &pcmStream{r: m.Reader}, nil
}

type pcmStream struct {
	r      io.Reader
	closed atomic.Bool
}

func (s *pcmStream) Read(p []byte) (int, error) {
	if s.r == nil {
		return 0, io.EOF
	}
	return s.r.Read(p)
}

func (s *pcmStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
