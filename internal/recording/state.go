// Package recording captures short voice memos for task attachments.
//
// The recording timeline is a pure state machine (Next) driven by a
// Controller that owns the microphone stream and the one-second ticker.
package recording

// MaxSeconds is the recording length at which recording stops by itself.
const MaxSeconds = 30

// WarningSeconds is the elapsed time from which the user is warned that the
// recording is about to stop.
const WarningSeconds = 25

// Phase is the recording phase.
type Phase int

const (
	Idle Phase = iota
	Recording
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// State is the recording timeline. Elapsed is in whole seconds.
type State struct {
	Phase       Phase
	Elapsed     int
	AutoStopped bool
}

// Event drives the state machine.
type Event int

const (
	Start Event = iota
	Tick
	Stop
	Discard
)

func (e Event) String() string {
	switch e {
	case Start:
		return "start"
	case Tick:
		return "tick"
	case Stop:
		return "stop"
	default:
		return "discard"
	}
}

// Next returns the state after e. Events that do not apply to the current
// phase leave the state unchanged. The tick that reaches MaxSeconds stops
// the recording in the same transition.
func Next(s State, e Event) State {
	switch e {
	case Start:
		if s.Phase == Recording {
			return s
		}
		return State{Phase: Recording}
	case Tick:
		if s.Phase != Recording {
			return s
		}
		s.Elapsed++
		if s.Elapsed >= MaxSeconds {
			return State{Phase: Stopped, Elapsed: MaxSeconds, AutoStopped: true}
		}
		return s
	case Stop:
		if s.Phase != Recording {
			return s
		}
		return State{Phase: Stopped, Elapsed: s.Elapsed}
	case Discard:
		return State{}
	}
	return s
}

// Warning reports whether the recording is close to its limit.
func Warning(s State) bool {
	return s.Phase == Recording && s.Elapsed >= WarningSeconds
}

// Remaining returns the seconds left before the recording stops by itself.
func Remaining(s State) int {
	if s.Phase != Recording {
		return 0
	}
	return MaxSeconds - s.Elapsed
}
