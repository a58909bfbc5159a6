package editor

import (
	"time"

	"github.com/cjennings/adrenaline/internal/statusline"
	"github.com/cjennings/adrenaline/internal/term"
)

// Action is the editor's answer to an input event, carried out by the
// application because it involves components the editor does not own.
type Action int

const (
	// ActionNone means the event was fully handled.
	ActionNone Action = iota
	// ActionQuit requests application shutdown.
	ActionQuit
	// ActionToggleStatusline requests a render-loop toggle.
	ActionToggleStatusline
)

// Editor owns the buffers and the screen layout: the text area on top,
// an optional permanent status bar row below it, and the echo line on
// the bottom row. It implements statusline.State and statusline.Host,
// making it the display and scheduling surface the render loop drives.
//
// All methods must be called from the event loop goroutine. Timer
// goroutines started by StartTimer never touch the editor; they post
// their callbacks back to the loop through the screen.
type Editor struct {
	screen term.Screen

	buffers []*Buffer
	current int

	scroll   int // first visible buffer line, 0-indexed
	readOnly bool

	barVisible bool

	// echoMessage is the editor's own (foreign) content on the echo
	// line; echoLine is the renderer's. A non-empty message wins.
	echoMessage string
	echoLine    statusline.Line

	timers    map[statusline.TimerHandle]chan struct{}
	nextTimer statusline.TimerHandle

	hooks    []focusHook
	nextHook statusline.HookHandle

	highlights map[*Buffer]*highlight
	palette    map[statusline.Style]term.Style
}

type focusHook struct {
	handle statusline.HookHandle
	fn     func()
}

// Option configures an Editor.
type Option func(*Editor)

// WithReadOnly blocks editing operations; they echo a notice instead.
func WithReadOnly(ro bool) Option {
	return func(e *Editor) { e.readOnly = ro }
}

// WithPalette overrides the style-tag palette used for echo-line spans.
func WithPalette(p map[statusline.Style]term.Style) Option {
	return func(e *Editor) { e.palette = p }
}

// New creates an editor on the given screen holding a single scratch
// buffer. The permanent status bar starts visible.
func New(screen term.Screen, opts ...Option) *Editor {
	e := &Editor{
		screen:     screen,
		buffers:    []*Buffer{NewScratch("*scratch*")},
		barVisible: true,
		timers:     make(map[statusline.TimerHandle]chan struct{}),
		highlights: make(map[*Buffer]*highlight),
		palette:    defaultPalette,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OpenFile loads path into a new buffer and switches to it. A pristine
// scratch buffer left over from startup is replaced instead of kept.
func (e *Editor) OpenFile(path string) error {
	b, err := Open(path)
	if err != nil {
		return err
	}

	if len(e.buffers) == 1 && e.buffers[0].Path() == "" && !e.buffers[0].Modified() {
		delete(e.highlights, e.buffers[0])
		e.buffers[0] = b
		e.current = 0
		return nil
	}

	e.buffers = append(e.buffers, b)
	e.current = len(e.buffers) - 1
	return nil
}

func (e *Editor) buf() *Buffer { return e.buffers[e.current] }

// Buffer returns the active buffer.
func (e *Editor) Buffer() *Buffer { return e.buf() }

// NextBuffer switches to the next buffer, wrapping at the end.
func (e *Editor) NextBuffer() {
	e.current = (e.current + 1) % len(e.buffers)
}

// PrevBuffer switches to the previous buffer, wrapping at the start.
func (e *Editor) PrevBuffer() {
	e.current = (e.current - 1 + len(e.buffers)) % len(e.buffers)
}

// Echo shows an editor message on the echo line. The message is foreign
// content to the render loop: it blocks render ticks until the next key
// event clears it.
func (e *Editor) Echo(msg string) {
	e.echoMessage = msg
	e.renderEcho()
	e.screen.Show()
}

// HandleKey processes one key event and redraws. Any pending editor
// message is cleared first, so a blocked render loop resumes within one
// interval of the user typing.
func (e *Editor) HandleKey(ev term.Event) Action {
	e.echoMessage = ""

	b := e.buf()
	action := ActionNone

	switch ev.Key {
	case term.KeyCtrl:
		switch ev.Rune {
		case 'q':
			return ActionQuit
		case 's':
			e.saveCurrent()
		case 'n':
			e.NextBuffer()
		case 'p':
			e.PrevBuffer()
		}
	case term.KeyF2:
		action = ActionToggleStatusline
	case term.KeyUp:
		b.MoveUp(1)
	case term.KeyDown:
		b.MoveDown(1)
	case term.KeyLeft:
		b.MoveLeft()
	case term.KeyRight:
		b.MoveRight()
	case term.KeyHome:
		b.MoveLineStart()
	case term.KeyEnd:
		b.MoveLineEnd()
	case term.KeyPageUp:
		b.MoveUp(e.pageSize())
	case term.KeyPageDown:
		b.MoveDown(e.pageSize())
	case term.KeyEnter:
		e.edit(b.InsertNewline)
	case term.KeyBackspace:
		e.edit(b.DeleteBackward)
	case term.KeyDelete:
		e.edit(b.DeleteForward)
	case term.KeyTab:
		e.edit(func() { b.InsertRune('\t') })
	case term.KeyRune:
		e.edit(func() { b.InsertRune(ev.Rune) })
	}

	e.Render()
	return action
}

// edit runs an editing operation unless the editor is read-only, and
// invalidates the highlight cache for the touched buffer.
func (e *Editor) edit(fn func()) {
	if e.readOnly {
		e.Echo("read-only: edit discarded")
		return
	}
	fn()
	delete(e.highlights, e.buf())
}

func (e *Editor) saveCurrent() {
	b := e.buf()
	if err := b.Save(); err != nil {
		e.Echo("save: " + err.Error())
		return
	}
	e.Echo("wrote " + b.Path())
}

// FocusChanged runs the registered focus hooks, on gaining and on
// losing focus alike. The application calls it from terminal focus
// events, so hooks always run on the loop.
func (e *Editor) FocusChanged(bool) {
	hooks := append([]focusHook(nil), e.hooks...)
	for _, h := range hooks {
		h.fn()
	}
}

// Close stops all running timers. The editor must not be used after.
func (e *Editor) Close() {
	for h, stop := range e.timers {
		close(stop)
		delete(e.timers, h)
	}
}

// statusline.State

// CursorPosition returns the active buffer's cursor.
func (e *Editor) CursorPosition() (line, col int) { return e.buf().Cursor() }

// MajorMode returns the active buffer's detected filetype.
func (e *Editor) MajorMode() string { return e.highlightFor(e.buf()).mode }

// BufferName returns the active buffer's display name.
func (e *Editor) BufferName() string { return e.buf().Name() }

// FileDirectory returns the directory of the active buffer's file.
func (e *Editor) FileDirectory() (string, bool) { return e.buf().Dir() }

// Modified reports whether the active buffer has unsaved changes.
func (e *Editor) Modified() bool { return e.buf().Modified() }

// statusline.Host

// DisplayWidth returns the width available to the echo line.
func (e *Editor) DisplayWidth() int {
	w, _ := e.screen.Size()
	return w
}

// TransientOccupied reports whether an editor message holds the echo
// line.
func (e *Editor) TransientOccupied() bool { return e.echoMessage != "" }

// WriteTransient puts the composed line on the echo row.
func (e *Editor) WriteTransient(line statusline.Line) {
	e.echoLine = line
	e.renderEcho()
	e.screen.Show()
}

// ClearTransient empties the echo row, editor messages included.
func (e *Editor) ClearTransient() {
	e.echoLine = statusline.Line{}
	e.echoMessage = ""
	e.renderEcho()
	e.screen.Show()
}

// SuppressStatusBar hides the permanent status bar, yielding its row to
// the text area, and returns a function restoring the saved visibility.
func (e *Editor) SuppressStatusBar() func() {
	saved := e.barVisible
	e.barVisible = false
	e.Render()
	return func() {
		e.barVisible = saved
		e.Render()
	}
}

// StartTimer runs fn on the event loop every interval until stopped.
// The ticker goroutine only posts; dropped posts are made up for by the
// next tick.
func (e *Editor) StartTimer(interval time.Duration, fn func()) statusline.TimerHandle {
	e.nextTimer++
	handle := e.nextTimer
	stop := make(chan struct{})
	e.timers[handle] = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.screen.PostFunc(fn)
			}
		}
	}()

	return handle
}

// StopTimer cancels a running timer. Unknown handles are ignored.
func (e *Editor) StopTimer(handle statusline.TimerHandle) {
	if stop, ok := e.timers[handle]; ok {
		close(stop)
		delete(e.timers, handle)
	}
}

// AddFocusHook registers fn to run on focus changes.
func (e *Editor) AddFocusHook(fn func()) statusline.HookHandle {
	e.nextHook++
	e.hooks = append(e.hooks, focusHook{handle: e.nextHook, fn: fn})
	return e.nextHook
}

// RemoveFocusHook unregisters a hook. Unknown handles are ignored.
func (e *Editor) RemoveFocusHook(handle statusline.HookHandle) {
	for i, h := range e.hooks {
		if h.handle == handle {
			e.hooks = append(e.hooks[:i], e.hooks[i+1:]...)
			return
		}
	}
}
