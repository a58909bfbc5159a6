package term

import "testing"

func initMemory(t *testing.T, width, height int) *Memory {
	t.Helper()
	m := NewMemory(width, height)
	if err := m.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return m
}

func TestMemoryDrawsWithoutInit(t *testing.T) {
	m := NewMemory(5, 2)

	m.SetCell(0, 0, 'x', StyleDefault)

	if got := m.RowText(0); got != "x" {
		t.Errorf("RowText(0) = %q before Init, want x", got)
	}
	if got := m.RowText(1); got != "" {
		t.Errorf("RowText(1) = %q before Init, want empty", got)
	}
}

func TestMemoryRowText(t *testing.T) {
	m := initMemory(t, 10, 2)

	for i, r := range "hello" {
		m.SetCell(i, 0, r, StyleDefault)
	}

	if got := m.RowText(0); got != "hello" {
		t.Errorf("RowText(0) = %q, want hello", got)
	}
	if got := m.RowText(1); got != "" {
		t.Errorf("RowText(1) = %q, want empty", got)
	}
	if got := m.RowText(5); got != "" {
		t.Errorf("RowText(5) = %q, want empty for out of range", got)
	}
}

func TestMemoryRowTextWideRunes(t *testing.T) {
	m := initMemory(t, 10, 1)

	// A wide rune occupies two cells; the caller advances past the
	// shadowed one.
	m.SetCell(0, 0, '日', StyleDefault)
	m.SetCell(2, 0, 'x', StyleDefault)

	if got := m.RowText(0); got != "日x" {
		t.Errorf("RowText(0) = %q, want 日x", got)
	}
}

func TestMemoryIgnoresOutOfRange(t *testing.T) {
	m := initMemory(t, 3, 1)

	m.SetCell(-1, 0, 'a', StyleDefault)
	m.SetCell(3, 0, 'b', StyleDefault)
	m.SetCell(0, 1, 'c', StyleDefault)

	if got := m.RowText(0); got != "" {
		t.Errorf("RowText(0) = %q, want empty", got)
	}
}

func TestMemoryClear(t *testing.T) {
	m := initMemory(t, 5, 1)
	m.SetCell(0, 0, 'x', StyleDefault)

	m.Clear()

	if got := m.RowText(0); got != "" {
		t.Errorf("RowText(0) = %q after Clear, want empty", got)
	}
}

func TestMemoryEvents(t *testing.T) {
	m := initMemory(t, 5, 1)

	m.PostKey(KeyRune, 'a')
	m.PostResize(8, 2)
	m.PostFocus(true)

	ev := m.PollEvent()
	if ev.Type != EventKey || ev.Rune != 'a' {
		t.Errorf("event 1 = %+v, want key a", ev)
	}
	ev = m.PollEvent()
	if ev.Type != EventResize || ev.Width != 8 || ev.Height != 2 {
		t.Errorf("event 2 = %+v, want resize 8x2", ev)
	}
	if w, h := m.Size(); w != 8 || h != 2 {
		t.Errorf("Size() = %dx%d after resize, want 8x2", w, h)
	}
	ev = m.PollEvent()
	if ev.Type != EventFocus || !ev.Focused {
		t.Errorf("event 3 = %+v, want focus", ev)
	}
}

func TestMemoryPostFunc(t *testing.T) {
	m := initMemory(t, 5, 1)

	ran := false
	m.PostFunc(func() { ran = true })

	ev := m.PollEvent()
	if ev.Type != EventFunc || ev.Fn == nil {
		t.Fatalf("event = %+v, want func event", ev)
	}
	ev.Fn()
	if !ran {
		t.Error("posted callback did not run")
	}
}

func TestMemoryCursor(t *testing.T) {
	m := initMemory(t, 5, 1)

	m.ShowCursor(2, 0)
	if x, y, vis := m.CursorPosition(); !vis || x != 2 || y != 0 {
		t.Errorf("CursorPosition() = %d,%d,%v, want 2,0,true", x, y, vis)
	}
	m.HideCursor()
	if _, _, vis := m.CursorPosition(); vis {
		t.Error("cursor still visible after HideCursor")
	}
}

func TestModMaskHas(t *testing.T) {
	m := ModCtrl | ModAlt
	if !m.Has(ModCtrl) || !m.Has(ModAlt) {
		t.Error("Has() missed set modifiers")
	}
	if m.Has(ModShift) {
		t.Error("Has() reported unset modifier")
	}
}
