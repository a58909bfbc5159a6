package script

import (
	"errors"
	"strings"
	"testing"

	"github.com/cjennings/adrenaline/internal/statusline"
)

type fakeState struct {
	line, col int
	mode      string
	name      string
	dir       string
	hasFile   bool
	modified  bool
}

func (s *fakeState) CursorPosition() (int, int)    { return s.line, s.col }
func (s *fakeState) MajorMode() string             { return s.mode }
func (s *fakeState) BufferName() string            { return s.name }
func (s *fakeState) FileDirectory() (string, bool) { return s.dir, s.hasFile }
func (s *fakeState) Modified() bool                { return s.modified }

type fakeBranches struct {
	info statusline.Info
	ok   bool
}

func (b *fakeBranches) BranchInfo(string) (statusline.Info, bool) {
	return b.info, b.ok
}

func newEngine(t *testing.T, st statusline.State, opts ...Option) *Engine {
	t.Helper()
	e, err := New(st, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func produce(t *testing.T, e *Engine, name, source string) string {
	t.Helper()
	p, err := e.Compile(name, source)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", name, err)
	}
	got, err := p.Produce()
	if err != nil {
		t.Fatalf("Produce() error = %v", err)
	}
	return got
}

func TestNewRejectsNilState(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) error = nil, want error")
	}
}

func TestCompileSyntaxError(t *testing.T) {
	e := newEngine(t, &fakeState{})

	p, err := e.Compile("broken", `return (`)
	if err == nil {
		t.Fatal("Compile() error = nil, want syntax error")
	}
	if p != nil {
		t.Error("Compile() returned a producer alongside an error")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("Compile() error = %v, want fragment name in message", err)
	}
}

func TestProduceResults(t *testing.T) {
	e := newEngine(t, &fakeState{})

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"string", `return "hello"`, "hello"},
		{"integer", `return 42`, "42"},
		{"concat", `return "v" .. 2`, "v2"},
		{"string library", `return string.upper("ok")`, "OK"},
		{"math library", `return math.floor(3.9)`, "3"},
		{"nil is absent", `return nil`, ""},
		{"no return is absent", `local x = 1`, ""},
		{"false is absent", `return false`, ""},
		{"guard idiom", `return false and "never"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := produce(t, e, tt.name, tt.source); got != tt.want {
				t.Errorf("Produce() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProduceRejectsUnrenderable(t *testing.T) {
	e := newEngine(t, &fakeState{})

	tests := []struct {
		name   string
		source string
	}{
		{"true", `return true`},
		{"table", `return {}`},
		{"function", `return function() end`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := e.Compile(tt.name, tt.source)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if _, err := p.Produce(); err == nil {
				t.Error("Produce() error = nil, want type error")
			}
		})
	}
}

func TestProduceRuntimeErrorContained(t *testing.T) {
	e := newEngine(t, &fakeState{})

	p, err := e.Compile("boom", `error("boom")`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := p.Produce(); err == nil {
		t.Fatal("Produce() error = nil, want runtime error")
	} else if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Produce() error = %v, want script message in it", err)
	}

	// The failure must not poison the state for later fragments.
	if got := produce(t, e, "after", `return "still alive"`); got != "still alive" {
		t.Errorf("Produce() after error = %q, want %q", got, "still alive")
	}
}

func TestProduceObservesCurrentState(t *testing.T) {
	st := &fakeState{line: 1, col: 1}
	e := newEngine(t, st)

	p, err := e.Compile("pos", `return editor.line() .. ":" .. editor.column()`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	got, err := p.Produce()
	if err != nil {
		t.Fatalf("Produce() error = %v", err)
	}
	if got != "1:1" {
		t.Errorf("Produce() = %q, want %q", got, "1:1")
	}

	st.line, st.col = 120, 8
	got, err = p.Produce()
	if err != nil {
		t.Fatalf("Produce() error = %v", err)
	}
	if got != "120:8" {
		t.Errorf("Produce() after move = %q, want %q", got, "120:8")
	}
}

func TestEditorBindings(t *testing.T) {
	st := &fakeState{
		line:     7,
		col:      3,
		mode:     "go",
		name:     "main.go",
		dir:      "/src/app",
		hasFile:  true,
		modified: true,
	}
	vc := &fakeBranches{info: statusline.Info{Project: "app", Branch: "main"}, ok: true}
	e := newEngine(t, st, WithBranches(vc), WithWidth(func() int { return 80 }))

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"line", `return editor.line()`, "7"},
		{"column", `return editor.column()`, "3"},
		{"buffer_name", `return editor.buffer_name()`, "main.go"},
		{"directory", `return editor.directory()`, "/src/app"},
		{"modified", `return editor.modified() and "*" or "clean"`, "*"},
		{"mode", `return editor.mode()`, "go"},
		{"width", `return editor.width()`, "80"},
		{"branch", `return editor.branch()`, "main"},
		{"project", `return editor.project()`, "app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := produce(t, e, tt.name, tt.source); got != tt.want {
				t.Errorf("Produce() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEditorBindingsAbsent(t *testing.T) {
	// A scratch buffer with no file, no branch provider, no width.
	e := newEngine(t, &fakeState{name: "*scratch*"})

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"directory nil", `return editor.directory() == nil and "none"`, "none"},
		{"branch nil", `return editor.branch() == nil and "none"`, "none"},
		{"project nil", `return editor.project() == nil and "none"`, "none"},
		{"width zero", `return editor.width()`, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := produce(t, e, tt.name, tt.source); got != tt.want {
				t.Errorf("Produce() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBranchBindingWithoutFile(t *testing.T) {
	vc := &fakeBranches{info: statusline.Info{Branch: "main"}, ok: true}
	e := newEngine(t, &fakeState{hasFile: false}, WithBranches(vc))

	if got := produce(t, e, "b", `return editor.branch() == nil and "none"`); got != "none" {
		t.Errorf("branch() for file-less buffer = %q, want nil", got)
	}
}

func TestLoadersRemoved(t *testing.T) {
	e := newEngine(t, &fakeState{})

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "io", "os", "debug", "require"} {
		t.Run(name, func(t *testing.T) {
			src := `return type(` + name + `)`
			if got := produce(t, e, name, src); got != "nil" {
				t.Errorf("type(%s) = %q, want nil", name, got)
			}
		})
	}
}

func TestClosedEngine(t *testing.T) {
	e, err := New(&fakeState{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p, err := e.Compile("f", `return "x"`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if _, err := e.Compile("g", `return "y"`); !errors.Is(err, ErrClosed) {
		t.Errorf("Compile() after Close error = %v, want ErrClosed", err)
	}
	if _, err := p.Produce(); !errors.Is(err, ErrClosed) {
		t.Errorf("Produce() after Close error = %v, want ErrClosed", err)
	}
}
