package gesture

import (
	"errors"
	"sync"

	"bitebuddy-be/internal/logger"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var ErrFormHidden = errors.New("time entry form is not open")

type Navigator interface {
	Navigate(path string)
}

// Gate owns the session and hold timer of one clock control. Handlers never
// block; the hold timer fires on its own goroutine.
type Gate struct {
	cfg   Config
	clock clockwork.Clock
	nav   Navigator

	mu      sync.Mutex
	session Session
	hold    clockwork.Timer
}

func NewGate(cfg Config, clock clockwork.Clock, nav Navigator) *Gate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Gate{cfg: cfg, clock: clock, nav: nav}
}

func (g *Gate) PressStart() {
	g.mu.Lock()
	defer g.mu.Unlock()

	before := g.session.Press
	g.apply(Event{Kind: PressStart})
	if g.session.State != Pressing || g.session.Press == before {
		return
	}

	g.stopHold()
	press := g.session.Press
	g.hold = g.clock.AfterFunc(g.cfg.HoldDuration, func() { g.holdElapsed(press) })
}

func (g *Gate) PressEnd() {
	g.release(PressEnd)
}

func (g *Gate) PointerLeave() {
	g.release(PointerLeave)
}

func (g *Gate) Tap() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apply(Event{Kind: Tap})
}

// Cancel discards the session, e.g. when the control goes away.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopHold()
	g.apply(Event{Kind: Cancel})
}

func (g *Gate) State() State {
	return g.Session().State
}

func (g *Gate) Session() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = g.cfg.expire(g.session, g.clock.Now())
	return g.session
}

// Form returns the pre-filled entry while the gate is unlocked. It is the
// time currently on the clock and carries nothing about the secret.
func (g *Gate) Form() (TimeEntry, bool) {
	if g.State() != Unlocked {
		return TimeEntry{}, false
	}
	return EntryFromTime(g.clock.Now()), true
}

// Submit handles a save of the override form. Malformed input is returned
// and the form stays open. Any well-formed entry closes the form; only the
// secret navigates, and a mismatch looks exactly like an accepted entry.
func (g *Gate) Submit(hour, minute, meridiem string) error {
	g.mu.Lock()
	g.session = g.cfg.expire(g.session, g.clock.Now())
	if g.session.State != Unlocked {
		g.mu.Unlock()
		return ErrFormHidden
	}

	entry, err := ParseTimeEntry(hour, minute, meridiem)
	if err != nil {
		g.mu.Unlock()
		return err
	}

	match := entry.Matches(g.cfg.Secret)
	g.session = reset(g.session)
	g.mu.Unlock()

	if match {
		g.navigate()
	}
	return nil
}

func (g *Gate) release(kind EventKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopHold()
	g.apply(Event{Kind: kind})
}

func (g *Gate) holdElapsed(press uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apply(Event{Kind: HoldElapsed, Press: press})
}

// apply must be called with mu held.
func (g *Gate) apply(e Event) {
	g.session = g.cfg.Step(g.session, e, g.clock.Now())
}

func (g *Gate) stopHold() {
	if g.hold != nil {
		g.hold.Stop()
		g.hold = nil
	}
}

func (g *Gate) navigate() {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("gesture navigation panicked", zap.Any("panic", r))
		}
	}()
	g.nav.Navigate(g.cfg.PrivilegedPath)
}
