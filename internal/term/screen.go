// Package term provides the terminal screen abstraction for the
// editor: a real tcell-backed implementation and an in-memory one for
// tests.
//
// A Screen belongs to the goroutine running the event loop. PostFunc
// is the one cross-goroutine entry point: it queues a callback behind
// the pending input events so background work always lands back on the
// loop.
package term

// EventType identifies the kind of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	EventFocus
	EventFunc
)

// Event is a terminal event delivered by PollEvent.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune
	Mod  ModMask

	// Resize event fields
	Width, Height int

	// Focus event fields
	Focused bool

	// Func event field, carrying a callback posted with PostFunc
	Fn func()
}

// Key identifies a keyboard key.
type Key int

const (
	KeyNone Key = iota
	KeyRune     // printable character, in the Rune field
	KeyCtrl     // control-modified letter, lowercase in the Rune field
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// ModMask represents modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
)

// Has returns true if the mask contains the given modifier.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// Color is a 24-bit terminal color. The zero value is the terminal
// default.
type Color struct {
	R, G, B uint8
	Set     bool
}

// RGB builds a concrete color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Set: true}
}

// Attr is a bitmask of display attributes.
type Attr int

const (
	AttrNone Attr = 0
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrReverse
)

// Has returns true if the mask contains the given attribute.
func (a Attr) Has(attr Attr) bool {
	return a&attr != 0
}

// Style describes how a cell is drawn.
type Style struct {
	FG    Color
	BG    Color
	Attrs Attr
}

// StyleDefault is the terminal's default style.
var StyleDefault = Style{}

// Screen is the display surface the editor draws on.
//
// All methods except PostFunc must be called from the event loop
// goroutine. PostFunc may be called from anywhere.
type Screen interface {
	// Init prepares the screen. Must be called before any other
	// method.
	Init() error

	// Fini releases the screen and restores the terminal state.
	Fini()

	// Size returns the current screen dimensions.
	Size() (width, height int)

	// SetCell draws one rune at the given position. Positions outside
	// the screen are ignored. Wide runes occupy extra cells; the
	// caller advances x accordingly.
	SetCell(x, y int, r rune, style Style)

	// Clear erases the whole screen to the default style.
	Clear()

	// Show flushes pending changes to the display.
	Show()

	// ShowCursor positions and displays the cursor.
	ShowCursor(x, y int)

	// HideCursor hides the cursor.
	HideCursor()

	// PollEvent blocks until the next event arrives.
	PollEvent() Event

	// PostFunc queues fn to be delivered as an EventFunc through
	// PollEvent, putting the callback on the event loop. Safe to call
	// from any goroutine, and never blocks: when the event queue is
	// full the callback is dropped, so posts must be periodic or
	// re-triggerable.
	PostFunc(fn func())
}
