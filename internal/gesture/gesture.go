// Package gesture recognizes the hidden press-and-tap sequence on the clock
// control. Step is the pure recognizer; Gate drives it for one control with a
// real or fake clock.
package gesture

import "time"

type State int

const (
	Idle State = iota
	Pressing
	Armed
	Unlocked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressing:
		return "pressing"
	case Armed:
		return "armed"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

type EventKind int

const (
	PressStart EventKind = iota
	PressEnd
	PointerLeave
	HoldElapsed
	Tap
	Cancel
)

// Event is one input. Press identifies the press a HoldElapsed belongs to,
// so a timer from an earlier press is ignored.
type Event struct {
	Kind  EventKind
	Press uint64
}

type Session struct {
	State          State
	PressStartedAt time.Time // zero when no press is in progress
	ArmedAt        time.Time
	TapCount       int
	Armed          bool
	Press          uint64
}

type Config struct {
	HoldDuration time.Duration
	// TapThreshold is the number of taps after arming. Zero unlocks on the hold alone.
	TapThreshold int
	// ArmedTimeout drops an armed session that sees no completing tap in time. Zero disables it.
	ArmedTimeout   time.Duration
	Secret         TimeEntry
	PrivilegedPath string
}

func DefaultConfig() Config {
	return Config{
		HoldDuration:   15 * time.Second,
		TapThreshold:   5,
		Secret:         TimeEntry{Hour: 3, Minute: 43, Meridiem: AM},
		PrivilegedPath: "/admin-login",
	}
}

// Step applies one event to s at time now.
func (c Config) Step(s Session, e Event, now time.Time) Session {
	s = c.expire(s, now)

	if e.Kind == Cancel {
		return reset(s)
	}

	switch s.State {
	case Idle:
		switch e.Kind {
		case PressStart:
			return Session{State: Pressing, PressStartedAt: now, Press: s.Press + 1}
		case Tap:
			s.TapCount = 0
		}

	case Pressing:
		switch e.Kind {
		case PressEnd, PointerLeave:
			if c.held(s, now) {
				return c.arm(s, now)
			}
			return reset(s)
		case HoldElapsed:
			if e.Press == s.Press && c.held(s, now) {
				return c.arm(s, now)
			}
		case Tap:
			s.TapCount = 0
		}

	case Armed:
		if e.Kind == Tap {
			s.TapCount++
			if s.TapCount >= c.TapThreshold {
				s.State = Unlocked
			}
		}
	}

	return s
}

func (c Config) held(s Session, now time.Time) bool {
	return !s.PressStartedAt.IsZero() && now.Sub(s.PressStartedAt) >= c.HoldDuration
}

func (c Config) arm(s Session, now time.Time) Session {
	s.State = Armed
	s.Armed = true
	s.ArmedAt = now
	s.TapCount = 0
	s.PressStartedAt = time.Time{}
	if c.TapThreshold <= 0 {
		s.State = Unlocked
	}
	return s
}

func (c Config) expire(s Session, now time.Time) Session {
	if s.State == Armed && c.ArmedTimeout > 0 && now.Sub(s.ArmedAt) > c.ArmedTimeout {
		return reset(s)
	}
	return s
}

func reset(s Session) Session {
	return Session{Press: s.Press}
}
