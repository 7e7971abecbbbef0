package recording

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/faiface/beep/wav"
)

func TestNext_AutoStopAtLimit(t *testing.T) {
	s := Next(State{}, Start)
	for i := 1; i < MaxSeconds; i++ {
		s = Next(s, Tick)
		if s.Phase != Recording {
			t.Fatalf("tick %d: expected recording, got %s", i, s.Phase)
		}
	}
	s = Next(s, Tick)
	if s.Phase != Stopped || s.Elapsed != MaxSeconds || !s.AutoStopped {
		t.Errorf("expected auto stop at %d, got %+v", MaxSeconds, s)
	}
	if after := Next(s, Tick); after != s {
		t.Errorf("tick after stop should be ignored, got %+v", after)
	}
}

func TestWarning(t *testing.T) {
	s := Next(State{}, Start)
	for i := 1; i < MaxSeconds; i++ {
		s = Next(s, Tick)
		want := i >= 25
		if got := Warning(s); got != want {
			t.Errorf("elapsed %d: expected warning %v, got %v", i, want, got)
		}
		if got := Remaining(s); got != MaxSeconds-i {
			t.Errorf("elapsed %d: expected remaining %d, got %d", i, MaxSeconds-i, got)
		}
	}
	if Warning(Next(s, Tick)) {
		t.Error("stopped recording should not warn")
	}
}

func TestNext_ManualStopAndDiscard(t *testing.T) {
	s := Next(Next(Next(State{}, Start), Tick), Tick)
	s = Next(s, Stop)
	if s.Phase != Stopped || s.Elapsed != 2 || s.AutoStopped {
		t.Errorf("unexpected state after stop: %+v", s)
	}
	if s = Next(s, Discard); s != (State{}) {
		t.Errorf("expected idle after discard, got %+v", s)
	}
	if got := Next(State{}, Stop); got != (State{}) {
		t.Errorf("stop while idle should be ignored, got %+v", got)
	}
	rec := State{Phase: Recording, Elapsed: 4}
	if got := Next(rec, Start); got != rec {
		t.Errorf("start while recording should be ignored, got %+v", got)
	}
}

type manualClock struct {
	ticker *manualTicker
}

type manualTicker struct {
	c       chan time.Time
	stopped chan struct{}
}

func newManualClock() *manualClock {
	return &manualClock{}
}

func (m *manualClock) NewTicker(d time.Duration) Ticker {
	m.ticker = &manualTicker{c: make(chan time.Time), stopped: make(chan struct{})}
	return m.ticker
}

func (m *manualClock) Advance() {
	select {
	case m.ticker.c <- time.Now():
	case <-m.ticker.stopped:
	}
}

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop() {
	select {
	case <-t.stopped:
	default:
		close(t.stopped)
	}
}

// pcm returns n mono S16LE samples.
func pcm(n int) []byte {
	buf := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(i%1000)))
	}
	return buf
}

func newTestController(t *testing.T, samples int) (*Controller, *manualClock, chan State) {
	t.Helper()
	clock := newManualClock()
	states := make(chan State, 2*MaxSeconds)
	mic := &PCMMicrophone{Reader: bytes.NewReader(pcm(samples))}
	ctl := NewController(mic,
		WithClock(clock),
		WithDir(t.TempDir()),
		WithObserver(func(s State) { states <- s }),
	)
	return ctl, clock, states
}

func waitFor(t *testing.T, states chan State, pred func(State) bool) State {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if pred(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for state")
		}
	}
}

func TestController_AutoStop(t *testing.T) {
	ctl, clock, states := newTestController(t, 16000)
	if err := ctl.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < MaxSeconds; i++ {
		clock.Advance()
	}

	select {
	case <-ctl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("recording did not stop by itself")
	}
	s := waitFor(t, states, func(s State) bool { return s.Phase == Stopped })
	if !s.AutoStopped || s.Elapsed != MaxSeconds {
		t.Errorf("unexpected final state %+v", s)
	}

	clip := ctl.Clip()
	if clip == nil {
		t.Fatal("expected clip")
	}
	if clip.Duration != time.Second {
		t.Errorf("expected 1s of audio, got %v", clip.Duration)
	}
	f, err := os.Open(clip.Path)
	if err != nil {
		t.Fatalf("failed to open clip: %v", err)
	}
	defer f.Close()
	stream, format, err := wav.Decode(f)
	if err != nil {
		t.Fatalf("clip is not a valid wav: %v", err)
	}
	if format.SampleRate != 16000 || format.NumChannels != 1 || format.Precision != 2 {
		t.Errorf("unexpected format %+v", format)
	}
	if stream.Len() != 16000 {
		t.Errorf("expected 16000 samples, got %d", stream.Len())
	}
}

func TestController_ManualStop(t *testing.T) {
	ctl, clock, states := newTestController(t, 800)
	if err := ctl.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i <= 3; i++ {
		clock.Advance()
		want := i
		waitFor(t, states, func(s State) bool { return s.Elapsed == want })
	}

	clip, err := ctl.Stop()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := ctl.State(); s.Phase != Stopped || s.Elapsed != 3 || s.AutoStopped {
		t.Errorf("unexpected state %+v", s)
	}
	if clip == nil || clip.Duration != 50*time.Millisecond {
		t.Errorf("unexpected clip %+v", clip)
	}
	if _, err := ctl.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("expected ErrNotRecording, got %v", err)
	}
}

func TestController_StartWhileRecording(t *testing.T) {
	ctl, _, _ := newTestController(t, 10)
	if err := ctl.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ctl.Discard()

	if err := ctl.Start(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("expected ErrAlreadyRecording, got %v", err)
	}
}

func TestController_MicrophoneDenied(t *testing.T) {
	mic := &PCMMicrophone{Err: errors.New("permission denied")}
	ctl := NewController(mic, WithClock(newManualClock()))

	err := ctl.Start(context.Background())
	if !errors.Is(err, ErrMicrophone) {
		t.Fatalf("expected ErrMicrophone, got %v", err)
	}
	if s := ctl.State(); s.Phase != Idle {
		t.Errorf("expected idle, got %s", s.Phase)
	}
}

func TestController_DiscardRemovesClip(t *testing.T) {
	ctl, _, _ := newTestController(t, 100)
	if err := ctl.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clip, err := ctl.Stop()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ctl.Discard(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(clip.Path); !os.IsNotExist(err) {
		t.Errorf("expected clip file removed, stat err = %v", err)
	}
	if ctl.State() != (State{}) || ctl.Clip() != nil {
		t.Errorf("expected idle without clip, got %+v", ctl.State())
	}
}

func TestController_RestartDiscardsPreviousClip(t *testing.T) {
	clock := newManualClock()
	dir := t.TempDir()
	mic := &PCMMicrophone{Reader: bytes.NewReader(pcm(100))}
	ctl := NewController(mic, WithClock(clock), WithDir(dir))

	if err := ctl.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := ctl.Stop()

	mic.Reader = bytes.NewReader(pcm(100))
	if err := ctl.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ctl.Discard()

	if _, err := os.Stat(first.Path); !os.IsNotExist(err) {
		t.Errorf("expected previous clip removed, stat err = %v", err)
	}
}

func TestController_ContextCancelStops(t *testing.T) {
	ctl, _, _ := newTestController(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	if err := ctl.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()

	select {
	case <-ctl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("recording did not stop on cancel")
	}
	defer ctl.Discard()
	if s := ctl.State(); s.Phase != Stopped {
		t.Errorf("expected stopped, got %s", s.Phase)
	}
}

func TestCommandMicrophone_Format(t *testing.T) {
	m := NewCommandMicrophone("arecord -q -t raw -f S16_LE -c 2 -r 44100")
	f := m.Format()
	if f.SampleRate != 44100 || f.NumChannels != 2 {
		t.Errorf("unexpected format %+v", f)
	}
	if got := NewCommandMicrophone("rec").Format(); got != DefaultFormat {
		t.Errorf("expected default format, got %+v", got)
	}
}

func TestCommandMicrophone_MissingBinary(t *testing.T) {
	m := NewCommandMicrophone("/nonexistent/recorder -r 16000")
	if _, err := m.Open(context.Background()); !errors.Is(err, ErrMicrophone) {
		t.Errorf("expected ErrMicrophone, got %v", err)
	}
}

func TestCommandMicrophone_CloseReapsAfterRead(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	stream, err := NewCommandMicrophone("sleep 30").Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, stream)
		done <- err
	}()
	if err := stream.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected a clean end of stream, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not finish after close")
	}
	if cs := stream.(*commandStream); cs.cmd.ProcessState == nil {
		t.Error("expected the capture process to be reaped")
	}
}
