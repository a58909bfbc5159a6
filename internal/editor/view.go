package editor

import (
	"strconv"

	"github.com/mattn/go-runewidth"

	"github.com/cjennings/adrenaline/internal/statusline"
	"github.com/cjennings/adrenaline/internal/term"
)

const tabWidth = 4

// defaultPalette maps statusline style tags to terminal styles.
var defaultPalette = map[statusline.Style]term.Style{
	statusline.StyleDefault: {},
	statusline.StyleDim:     {FG: term.RGB(0x87, 0x8f, 0x96)},
	statusline.StyleAccent:  {FG: term.RGB(0x61, 0xaf, 0xef), Attrs: term.AttrBold},
	statusline.StyleAlert:   {FG: term.RGB(0xe0, 0x6c, 0x75), Attrs: term.AttrBold},
}

var barStyle = term.Style{Attrs: term.AttrReverse}

// Render redraws the whole screen: text area, status bar when visible,
// echo line and cursor.
func (e *Editor) Render() {
	w, h := e.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}

	e.scrollToCursor()

	b := e.buf()
	hl := e.highlightFor(b)

	textH := e.textHeight()
	for row := 0; row < textH; row++ {
		e.renderBufferLine(b, hl, row, w)
	}
	if e.barVisible && h >= 2 {
		e.renderBar(w, h-2)
	}
	e.renderEcho()
	e.placeCursor()
	e.screen.Show()
}

// textHeight returns the rows available to buffer text: everything
// above the echo line, minus the status bar row when visible.
func (e *Editor) textHeight() int {
	_, h := e.screen.Size()
	th := h - 1
	if e.barVisible {
		th--
	}
	if th < 0 {
		th = 0
	}
	return th
}

func (e *Editor) pageSize() int {
	if th := e.textHeight(); th > 1 {
		return th - 1
	}
	return 1
}

// scrollToCursor adjusts the viewport so the cursor line is visible.
func (e *Editor) scrollToCursor() {
	line, _ := e.buf().Cursor()
	row := line - 1
	th := e.textHeight()
	if th <= 0 {
		return
	}
	if row < e.scroll {
		e.scroll = row
	}
	if row >= e.scroll+th {
		e.scroll = row - th + 1
	}
}

func (e *Editor) renderBufferLine(b *Buffer, hl *highlight, row, w int) {
	n := e.scroll + row + 1
	x := 0
	for _, run := range hl.lineRuns(b, n) {
		for _, r := range run.text {
			if x >= w {
				break
			}
			x = e.drawRune(x, row, r, run.style)
		}
		if x >= w {
			break
		}
	}
	e.clearRow(row, x, w, term.StyleDefault)
}

// renderBar draws the permanent status bar: buffer name, modified
// marker and mode on the left, cursor position right-aligned.
func (e *Editor) renderBar(w, y int) {
	b := e.buf()

	left := " " + b.Name()
	if b.Modified() {
		left += " *"
	}
	if mode := e.highlightFor(b).mode; mode != "" {
		left += "  (" + mode + ")"
	}

	line, col := b.Cursor()
	right := strconv.Itoa(line) + ":" + strconv.Itoa(col) + " "

	x := 0
	for _, r := range left {
		if x >= w {
			break
		}
		x = e.drawRune(x, y, r, barStyle)
	}
	e.clearRow(y, x, w, barStyle)

	if rx := w - runewidth.StringWidth(right); rx > x {
		for _, r := range right {
			rx = e.drawRune(rx, y, r, barStyle)
		}
	}
}

// renderEcho draws the bottom row. An editor message wins over renderer
// content; otherwise the composed line's spans are drawn through the
// palette.
func (e *Editor) renderEcho() {
	w, h := e.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}
	y := h - 1
	x := 0

	if e.echoMessage != "" {
		for _, r := range e.echoMessage {
			if x >= w {
				break
			}
			x = e.drawRune(x, y, r, term.StyleDefault)
		}
	} else {
		for _, span := range e.echoLine.Spans {
			st := e.styleFor(span.Style)
			for _, r := range span.Text {
				if x >= w {
					break
				}
				x = e.drawRune(x, y, r, st)
			}
			if x >= w {
				break
			}
		}
	}
	e.clearRow(y, x, w, term.StyleDefault)
}

// styleFor maps a style tag to a terminal style; unknown tags fall
// back to the default.
func (e *Editor) styleFor(tag statusline.Style) term.Style {
	if st, ok := e.palette[tag]; ok {
		return st
	}
	return term.StyleDefault
}

func (e *Editor) placeCursor() {
	b := e.buf()
	line, col := b.Cursor()
	row := line - 1 - e.scroll
	if row < 0 || row >= e.textHeight() {
		e.screen.HideCursor()
		return
	}

	x := 0
	runes := []rune(b.Line(line))
	for i := 0; i < col-1 && i < len(runes); i++ {
		x = advance(x, runes[i])
	}
	e.screen.ShowCursor(x, row)
}

// drawRune draws r at (x, y) and returns the next free column. Tabs
// are drawn as spaces up to the next tab stop.
func (e *Editor) drawRune(x, y int, r rune, st term.Style) int {
	next := advance(x, r)
	if r == '\t' {
		for ; x < next; x++ {
			e.screen.SetCell(x, y, ' ', st)
		}
		return next
	}
	e.screen.SetCell(x, y, r, st)
	return next
}

// advance returns the column after placing r at column x. Tabs jump to
// the next tab stop, wide runes take two cells and zero-width runes
// still get one so the cursor math stays invertible.
func advance(x int, r rune) int {
	if r == '\t' {
		return x + tabWidth - x%tabWidth
	}
	w := runewidth.RuneWidth(r)
	if w < 1 {
		w = 1
	}
	return x + w
}

func (e *Editor) clearRow(y, from, w int, st term.Style) {
	for x := from; x < w; x++ {
		e.screen.SetCell(x, y, ' ', st)
	}
}
