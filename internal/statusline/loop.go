package statusline

import (
	"fmt"
	"time"
)

// TimerHandle identifies a recurring timer registered with the host.
type TimerHandle int

// HookHandle identifies a focus-change hook registered with the host.
type HookHandle int

// Host is the display and scheduling surface the render loop drives.
//
// Hosts run a single cooperative event loop: every callback handed to
// StartTimer or AddFocusHook must be invoked on that loop, and
// Activate/Deactivate must be called from it too. Ticks therefore
// never interleave and the loop needs no locks.
type Host interface {
	// DisplayWidth returns the width in cells available to the
	// transient line.
	DisplayWidth() int

	// TransientOccupied reports whether the transient line currently
	// holds foreign content such as a prompt or an editor message.
	// Any non-empty foreign content blocks a render tick.
	TransientOccupied() bool

	// WriteTransient replaces the transient line's content.
	WriteTransient(line Line)

	// ClearTransient empties the transient line.
	ClearTransient()

	// SuppressStatusBar hides the host's permanent status bar and
	// returns a function restoring the prior display configuration.
	SuppressStatusBar() (restore func())

	// StartTimer begins invoking fn on the host loop every interval.
	StartTimer(interval time.Duration, fn func()) TimerHandle

	// StopTimer cancels a timer started with StartTimer. Callbacks
	// already queued on the loop may still run; a cancelled timer
	// queues nothing new.
	StopTimer(handle TimerHandle)

	// AddFocusHook registers fn to run on the host loop whenever the
	// editor's focus changes.
	AddFocusHook(fn func()) HookHandle

	// RemoveFocusHook unregisters a hook added with AddFocusHook.
	RemoveFocusHook(handle HookHandle)
}

// Logger is the slice of the application logger the loop uses for
// debug traces. A nil logger disables tracing.
type Logger interface {
	Debug(format string, args ...any)
}

// DefaultInterval is the tick interval used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Loop is the render scheduler: it decides when the registry is
// composed and written to the host's transient line.
//
// A Loop is either idle or active. Activation suppresses the host's
// permanent status bar, starts the recurring timer and registers the
// focus hook; deactivation unwinds all three and clears the transient
// line. Exactly one Loop should drive a host at a time.
type Loop struct {
	host     Host
	registry *Registry
	interval time.Duration
	logger   Logger

	active    bool
	timer     TimerHandle
	focusHook HookHandle
	restore   func()

	// lastShown suppresses repeats of the most recently displayed
	// diagnostic. Only a different error resets it, so a failure that
	// persists across ticks is reported once, while successful ticks
	// in between do not re-arm the same message.
	lastShown string
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithInterval sets the tick interval. Non-positive durations are
// ignored and the default kept.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithLoopLogger attaches a debug logger to the loop.
func WithLoopLogger(lg Logger) LoopOption {
	return func(l *Loop) { l.logger = lg }
}

// NewLoop builds an idle render loop over the given host and registry.
func NewLoop(host Host, registry *Registry, opts ...LoopOption) *Loop {
	if registry == nil {
		registry = NewRegistry()
	}
	l := &Loop{
		host:     host,
		registry: registry,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Active reports whether the render loop is running.
func (l *Loop) Active() bool { return l.active }

// Interval returns the current tick interval.
func (l *Loop) Interval() time.Duration { return l.interval }

// Registry returns the fragment registry the loop composes from.
func (l *Loop) Registry() *Registry { return l.registry }

// SetRegistry swaps the fragment registry; the next tick composes the
// new list. Configuration reload uses this to rebuild the line without
// bouncing the loop.
func (l *Loop) SetRegistry(r *Registry) {
	if r != nil {
		l.registry = r
	}
}

// SetInterval changes the tick interval. On an active loop the timer
// restarts with the new interval; non-positive durations are ignored.
func (l *Loop) SetInterval(d time.Duration) {
	if d <= 0 || d == l.interval {
		return
	}
	l.interval = d
	if l.active {
		l.host.StopTimer(l.timer)
		l.timer = l.host.StartTimer(l.interval, l.Tick)
	}
}

// Activate moves the loop from idle to active: the permanent status
// bar is suppressed and its restore function saved, the recurring
// timer starts, the focus hook is registered, and one render runs
// immediately so the line appears before the first interval elapses.
// Activating an active loop is a no-op.
func (l *Loop) Activate() {
	if l.active {
		return
	}
	l.restore = l.host.SuppressStatusBar()
	l.timer = l.host.StartTimer(l.interval, l.Tick)
	l.focusHook = l.host.AddFocusHook(l.Tick)
	l.active = true
	if l.logger != nil {
		l.logger.Debug("statusline active, interval=%s", l.interval)
	}
	l.Tick()
}

// Deactivate returns the loop to idle: the timer is cancelled, the
// focus hook removed, the saved display configuration restored and the
// transient line cleared. Callbacks still queued on the host loop find
// the loop idle and do nothing. Every teardown step runs even if an
// earlier one panics; deactivation never throws, so the host display
// is always restorable. Deactivating an idle loop is a no-op.
func (l *Loop) Deactivate() {
	if !l.active {
		return
	}
	l.active = false
	swallow(func() { l.host.StopTimer(l.timer) })
	swallow(func() { l.host.RemoveFocusHook(l.focusHook) })
	if l.restore != nil {
		swallow(l.restore)
		l.restore = nil
	}
	swallow(l.host.ClearTransient)
	if l.logger != nil {
		l.logger.Debug("statusline idle")
	}
}

// Toggle flips the loop between idle and active.
func (l *Loop) Toggle() {
	if l.active {
		l.Deactivate()
	} else {
		l.Activate()
	}
}

// Tick runs one render pass. The recurring timer and the focus hook
// both land here, and hosts may call it directly to force a render
// after an out-of-band change such as a repository refresh.
//
// While idle the tick does nothing, which makes a deactivation that
// races an already-queued callback safe. While the transient line
// holds foreign content the tick is skipped, deferring to the host.
// Any panic or producer error during the pass degrades to a one-line
// diagnostic; a tick is never fatal to the host.
func (l *Loop) Tick() {
	if !l.active {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.showError(fmt.Errorf("panic: %v", r))
		}
	}()
	if l.host.TransientOccupied() {
		return
	}
	line, err := Compose(l.registry.Snapshot(), l.host.DisplayWidth())
	if err != nil {
		l.showError(err)
		return
	}
	l.host.WriteTransient(line)
}

// showError writes the diagnostic line in place of the normal render,
// suppressing repeats of the error shown last.
func (l *Loop) showError(err error) {
	msg := err.Error()
	if msg == l.lastShown {
		return
	}
	l.lastShown = msg
	if l.logger != nil {
		l.logger.Debug("statusline tick failed: %v", err)
	}
	swallow(func() { l.host.WriteTransient(ErrorLine(err)) })
}

// swallow runs fn and discards any panic, so one failing teardown or
// display call cannot abort the steps that follow it.
func swallow(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
