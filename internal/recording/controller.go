package recording

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrAlreadyRecording is returned by Start during a recording.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrNotRecording is returned by Stop when nothing is being recorded.
	ErrNotRecording = errors.New("not recording")
)

// Ticker delivers the one-second recording ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// SystemClock uses time.Ticker.
type SystemClock struct{}

// NewTicker implements Clock.
func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithDir sets the directory clips are written to.
func WithDir(dir string) Option {
	return func(ctl *Controller) { ctl.dir = dir }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.log = l
		}
	}
}

// WithObserver registers fn to receive every new state.
func WithObserver(fn func(State)) Option {
	return func(ctl *Controller) { ctl.observe = fn }
}

// Controller records one clip at a time from a Microphone.
type Controller struct {
	mic     Microphone
	clock   Clock
	dir     string
	log     *slog.Logger
	observe func(State)

	mu       sync.Mutex
	state    State
	stream   io.ReadCloser
	ticker   Ticker
	quit     chan struct{}
	done     chan struct{}
	readDone chan struct{}
	clip     *Clip
	err      error

	bufMu sync.Mutex
	buf   bytes.Buffer
}

// NewController returns an idle controller.
func NewController(mic Microphone, opts ...Option) *Controller {
	c := &Controller{
		mic:   mic,
		clock: SystemClock{},
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Clip returns the last finalized clip, or nil.
func (c *Controller) Clip() *Clip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clip
}

// Done is closed when the current recording stops, manually or by itself.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// Start opens the microphone and starts recording. A previous clip is
// discarded. If the microphone cannot be opened the state stays unchanged.
// Cancelling ctx stops the recording.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Phase == Recording {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}

	stream, err := c.mic.Open(ctx)
	if err != nil {
		c.mu.Unlock()
		c.log.Debug("microphone open failed", "err", err)
		return err
	}

	if c.clip != nil {
		if err := c.clip.Discard(); err != nil {
			c.log.Debug("failed to discard previous clip", "path", c.clip.Path, "err", err)
		}
		c.clip = nil
	}
	c.bufMu.Lock()
	c.buf.Reset()
	c.bufMu.Unlock()

	c.stream = stream
	c.err = nil
	c.quit = make(chan struct{})
	c.done = make(chan struct{})
	c.readDone = make(chan struct{})
	c.ticker = c.clock.NewTicker(time.Second)
	state := c.transition(Start)

	go c.read(stream, c.readDone)
	go c.run(ctx, c.ticker, c.quit)
	c.mu.Unlock()

	c.notify(state)
	return nil
}

// Stop ends the recording and returns the finalized clip.
func (c *Controller) Stop() (*Clip, error) {
	c.mu.Lock()
	if c.state.Phase != Recording {
		c.mu.Unlock()
		return nil, ErrNotRecording
	}
	state := c.transition(Stop)
	c.finalize()
	clip, err := c.clip, c.err
	c.mu.Unlock()

	c.notify(state)
	return clip, err
}

// Discard stops any recording and removes the clip.
func (c *Controller) Discard() error {
	c.mu.Lock()
	if c.state.Phase == Recording {
		c.finalize()
	}
	var err error
	if c.clip != nil {
		err = c.clip.Discard()
		c.clip = nil
	}
	state := c.transition(Discard)
	c.mu.Unlock()

	c.notify(state)
	return err
}

func (c *Controller) run(ctx context.Context, ticker Ticker, quit chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-ctx.Done():
			c.cancel(quit)
			return
		case <-ticker.C():
			if c.tick(quit) {
				return
			}
		}
	}
}

// cancel stops the recording started with quit, if it is still running.
func (c *Controller) cancel(quit chan struct{}) {
	c.mu.Lock()
	if c.quit != quit || c.state.Phase != Recording {
		c.mu.Unlock()
		return
	}
	state := c.transition(Stop)
	c.finalize()
	c.mu.Unlock()

	c.notify(state)
}

// tick advances the timeline and reports whether the recording ended.
func (c *Controller) tick(quit chan struct{}) bool {
	c.mu.Lock()
	if c.quit != quit || c.state.Phase != Recording {
		c.mu.Unlock()
		return true
	}
	state := c.transition(Tick)
	stopped := state.Phase == Stopped
	if stopped {
		c.log.Debug("recording reached limit", "seconds", MaxSeconds)
		c.finalize()
	}
	c.mu.Unlock()

	c.notify(state)
	return stopped
}

func (c *Controller) read(stream io.Reader, done chan struct{}) {
	defer close(done)
	chunk := make([]byte, 4096)
	for {
		n, err := stream.Read(chunk)
		if n > 0 {
			c.bufMu.Lock()
			c.buf.Write(chunk[:n])
			c.bufMu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Debug("microphone read failed", "err", err)
			}
			return
		}
	}
}

// finalize releases the input and encodes the buffered audio.
// Must be called with c.mu held, after the transition out of Recording.
func (c *Controller) finalize() {
	close(c.quit)
	c.ticker.Stop()
	if err := c.stream.Close(); err != nil {
		c.log.Debug("failed to close microphone", "err", err)
	}
	<-c.readDone

	c.bufMu.Lock()
	pcm := append([]byte(nil), c.buf.Bytes()...)
	c.buf.Reset()
	c.bufMu.Unlock()

	c.clip, c.err = encodeClip(c.dir, pcm, c.mic.Format())
	if c.err == nil {
		c.log.Debug("recording finalized", "path", c.clip.Path, "duration", c.clip.Duration)
	}
	close(c.done)
}

func (c *Controller) transition(e Event) State {
	c.state = Next(c.state, e)
	return c.state
}

func (c *Controller) notify(s State) {
	if c.observe != nil {
		c.observe(s)
	}
}
