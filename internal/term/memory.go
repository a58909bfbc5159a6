package term

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Memory is an in-memory Screen for tests. Events arrive through the
// Post helpers, and RowText exposes what the editor drew.
type Memory struct {
	width, height int
	cells         [][]cell
	cursorX       int
	cursorY       int
	cursorShown   bool
	finied        bool
	shows         int
	events        chan Event
}

type cell struct {
	r     rune
	style Style
}

// NewMemory creates a memory screen with the given dimensions. The
// cell grid is ready immediately; Init stays callable for parity with
// a real terminal but a test may draw without it.
func NewMemory(width, height int) *Memory {
	m := &Memory{events: make(chan Event, 100)}
	m.reset(width, height)
	return m
}

func (m *Memory) Init() error {
	m.reset(m.width, m.height)
	return nil
}

func (m *Memory) Fini() {
	m.finied = true
	// A finalized tcell screen makes PollEvent return a nil event;
	// queue the equivalent so a blocked event loop wakes up.
	select {
	case m.events <- Event{Type: EventNone}:
	default:
	}
}

func (m *Memory) Size() (int, int) {
	return m.width, m.height
}

func (m *Memory) SetCell(x, y int, r rune, style Style) {
	if x >= 0 && x < m.width && y >= 0 && y < m.height {
		m.cells[y][x] = cell{r: r, style: style}
	}
}

func (m *Memory) Clear() {
	m.reset(m.width, m.height)
}

func (m *Memory) Show() {
	m.shows++
}

func (m *Memory) ShowCursor(x, y int) {
	m.cursorX, m.cursorY = x, y
	m.cursorShown = true
}

func (m *Memory) HideCursor() {
	m.cursorShown = false
}

func (m *Memory) PollEvent() Event {
	return <-m.events
}

func (m *Memory) PostFunc(fn func()) {
	select {
	case m.events <- Event{Type: EventFunc, Fn: fn}:
	default:
	}
}

func (m *Memory) reset(width, height int) {
	m.width, m.height = width, height
	m.cells = make([][]cell, height)
	for y := range m.cells {
		m.cells[y] = make([]cell, width)
		for x := range m.cells[y] {
			m.cells[y][x] = cell{r: ' '}
		}
	}
}

// PostKey queues a key event.
func (m *Memory) PostKey(key Key, r rune) {
	m.events <- Event{Type: EventKey, Key: key, Rune: r}
}

// PostResize resizes the screen and queues the resize event.
func (m *Memory) PostResize(width, height int) {
	m.reset(width, height)
	m.events <- Event{Type: EventResize, Width: width, Height: height}
}

// PostFocus queues a focus event.
func (m *Memory) PostFocus(focused bool) {
	m.events <- Event{Type: EventFocus, Focused: focused}
}

// RowText returns the visible text of one row with trailing blanks
// trimmed. Cells shadowed by a preceding wide rune are skipped.
func (m *Memory) RowText(y int) string {
	if y < 0 || y >= m.height {
		return ""
	}
	var b strings.Builder
	for x := 0; x < m.width; {
		r := m.cells[y][x].r
		b.WriteRune(r)
		if w := runewidth.RuneWidth(r); w > 1 {
			x += w
		} else {
			x++
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// StyleAt returns the style of the cell at the given position.
func (m *Memory) StyleAt(x, y int) Style {
	if x >= 0 && x < m.width && y >= 0 && y < m.height {
		return m.cells[y][x].style
	}
	return StyleDefault
}

// CursorPosition returns the cursor position and visibility.
func (m *Memory) CursorPosition() (x, y int, visible bool) {
	return m.cursorX, m.cursorY, m.cursorShown
}

// Shows returns how many times the screen was flushed.
func (m *Memory) Shows() int {
	return m.shows
}

// Finished reports whether Fini was called.
func (m *Memory) Finished() bool {
	return m.finied
}
