package editor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoFile is returned by Save on buffers without a backing file.
var ErrNoFile = errors.New("buffer has no file")

// Buffer is a named line buffer with a cursor. Lines hold no trailing
// newline; the cursor is 1-indexed and its column may sit one past the
// end of the line, the insert position. A buffer always holds at least
// one line.
//
// Buffers are owned by the editor's event loop and are not safe for
// concurrent use.
type Buffer struct {
	name string
	path string // empty for scratch buffers

	lines [][]rune

	line int // 1-indexed cursor line
	col  int // 1-indexed cursor column

	modified bool
}

// NewScratch creates an empty buffer with no backing file.
func NewScratch(name string) *Buffer {
	return &Buffer{
		name:  name,
		lines: [][]rune{{}},
		line:  1,
		col:   1,
	}
}

// Open reads path into a new buffer. A missing file yields an empty
// buffer that Save will create; any other read failure is an error.
func Open(path string) (*Buffer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	b := &Buffer{
		name: filepath.Base(abs),
		path: abs,
		line: 1,
		col:  1,
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		b.lines = [][]rune{{}}
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}

	b.setText(string(data))
	return b, nil
}

// setText replaces the buffer content, normalizing line endings to LF.
func (b *Buffer) setText(s string) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")

	raw := strings.Split(s, "\n")
	b.lines = make([][]rune, len(raw))
	for i, l := range raw {
		b.lines[i] = []rune(l)
	}
}

// Save writes the buffer to its backing file and clears the modified
// flag. Saving a scratch buffer returns ErrNoFile.
func (b *Buffer) Save() error {
	if b.path == "" {
		return ErrNoFile
	}
	if err := os.WriteFile(b.path, []byte(b.Text()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", b.path, err)
	}
	b.modified = false
	return nil
}

// Name returns the buffer's display name.
func (b *Buffer) Name() string { return b.name }

// Path returns the backing file path, empty for scratch buffers.
func (b *Buffer) Path() string { return b.path }

// Dir returns the directory of the backing file. ok is false for
// scratch buffers.
func (b *Buffer) Dir() (string, bool) {
	if b.path == "" {
		return "", false
	}
	return filepath.Dir(b.path), true
}

// Modified reports whether the buffer has unsaved changes.
func (b *Buffer) Modified() bool { return b.modified }

// Cursor returns the 1-indexed cursor line and column.
func (b *Buffer) Cursor() (line, col int) { return b.line, b.col }

// LineCount returns the number of lines, always at least one.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns the text of the 1-indexed line n, without a newline.
// Out-of-range lines are empty.
func (b *Buffer) Line(n int) string {
	if n < 1 || n > len(b.lines) {
		return ""
	}
	return string(b.lines[n-1])
}

// Text returns the full buffer content. Every line, the last included,
// ends with a newline.
func (b *Buffer) Text() string {
	var sb strings.Builder
	for _, l := range b.lines {
		sb.WriteString(string(l))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SetCursor moves the cursor to line/col, clamping both into range.
func (b *Buffer) SetCursor(line, col int) {
	if line < 1 {
		line = 1
	}
	if line > len(b.lines) {
		line = len(b.lines)
	}
	b.line = line
	b.col = b.clampCol(col)
}

func (b *Buffer) clampCol(col int) int {
	if col < 1 {
		return 1
	}
	if max := len(b.lines[b.line-1]) + 1; col > max {
		return max
	}
	return col
}

// MoveUp moves the cursor up n lines, clamping the column to the new
// line's length.
func (b *Buffer) MoveUp(n int) { b.SetCursor(b.line-n, b.col) }

// MoveDown moves the cursor down n lines.
func (b *Buffer) MoveDown(n int) { b.SetCursor(b.line+n, b.col) }

// MoveLeft moves the cursor one column left, wrapping to the end of the
// previous line at column one.
func (b *Buffer) MoveLeft() {
	if b.col > 1 {
		b.col--
		return
	}
	if b.line > 1 {
		b.line--
		b.col = len(b.lines[b.line-1]) + 1
	}
}

// MoveRight moves the cursor one column right, wrapping to the start of
// the next line past the end of the current one.
func (b *Buffer) MoveRight() {
	if b.col <= len(b.lines[b.line-1]) {
		b.col++
		return
	}
	if b.line < len(b.lines) {
		b.line++
		b.col = 1
	}
}

// MoveLineStart moves the cursor to column one.
func (b *Buffer) MoveLineStart() { b.col = 1 }

// MoveLineEnd moves the cursor past the last rune of the line.
func (b *Buffer) MoveLineEnd() { b.col = len(b.lines[b.line-1]) + 1 }

// InsertRune inserts r at the cursor and advances the column.
func (b *Buffer) InsertRune(r rune) {
	line := b.lines[b.line-1]
	idx := b.col - 1

	line = append(line, 0)
	copy(line[idx+1:], line[idx:])
	line[idx] = r

	b.lines[b.line-1] = line
	b.col++
	b.modified = true
}

// InsertNewline splits the current line at the cursor and moves the
// cursor to the start of the new line.
func (b *Buffer) InsertNewline() {
	line := b.lines[b.line-1]
	idx := b.col - 1

	rest := append([]rune(nil), line[idx:]...)
	b.lines[b.line-1] = line[:idx]

	b.lines = append(b.lines, nil)
	copy(b.lines[b.line+1:], b.lines[b.line:])
	b.lines[b.line] = rest

	b.line++
	b.col = 1
	b.modified = true
}

// DeleteBackward removes the rune before the cursor. At column one it
// joins the current line onto the previous one. At the start of the
// buffer it does nothing.
func (b *Buffer) DeleteBackward() {
	if b.col > 1 {
		line := b.lines[b.line-1]
		idx := b.col - 1
		b.lines[b.line-1] = append(line[:idx-1], line[idx:]...)
		b.col--
		b.modified = true
		return
	}
	if b.line == 1 {
		return
	}

	prev := b.lines[b.line-2]
	b.col = len(prev) + 1
	b.lines[b.line-2] = append(prev, b.lines[b.line-1]...)
	b.lines = append(b.lines[:b.line-1], b.lines[b.line:]...)
	b.line--
	b.modified = true
}

// DeleteForward removes the rune under the cursor. At the end of a line
// it joins the next line onto the current one. At the end of the buffer
// it does nothing.
func (b *Buffer) DeleteForward() {
	line := b.lines[b.line-1]
	idx := b.col - 1

	if idx < len(line) {
		b.lines[b.line-1] = append(line[:idx], line[idx+1:]...)
		b.modified = true
		return
	}
	if b.line == len(b.lines) {
		return
	}

	b.lines[b.line-1] = append(line, b.lines[b.line]...)
	b.lines = append(b.lines[:b.line], b.lines[b.line+1:]...)
	b.modified = true
}
