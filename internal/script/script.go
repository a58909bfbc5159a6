// Package script runs user-defined Lua fragment producers.
//
// An Engine wraps a single Lua state. The state is not goroutine-safe,
// so the Engine and every Producer it compiles must stay on the
// goroutine that owns it. The editor event loop satisfies this by
// construction: fragments are only evaluated from render ticks, which
// run on the loop.
package script

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cjennings/adrenaline/internal/statusline"
)

// ErrClosed is returned when compiling or producing on a closed Engine.
var ErrClosed = errors.New("script engine is closed")

// Engine compiles Lua sources into statusline producers. Scripts see a
// read-only `editor` table and the base, table, string and math
// libraries; io, os, debug and package stay closed, and the chunk
// loaders are removed.
type Engine struct {
	L *lua.LState

	state    statusline.State
	branches statusline.BranchProvider
	width    func() int

	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithBranches supplies version-control information to the `editor`
// table. Without it, branch() and project() return nil.
func WithBranches(bp statusline.BranchProvider) Option {
	return func(e *Engine) {
		e.branches = bp
	}
}

// WithWidth supplies the display width reported by editor.width().
func WithWidth(fn func() int) Option {
	return func(e *Engine) {
		e.width = fn
	}
}

// New creates an Engine reading editor state from st.
func New(st statusline.State, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, errors.New("script: nil editor state")
	}

	e := &Engine{
		state: st,
		width: func() int { return 0 },
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openLibraries(e.L)
	removeLoaders(e.L)
	e.installEditor()

	return e, nil
}

// Scripts get the base, table, string and math libraries. io, os,
// debug and package are never opened.
func openLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// removeLoaders drops the chunk-loading entry points the base library
// installs, so scripts cannot pull in code the config never named.
// require is registered by the base library too, not just the package
// library, so it has to go explicitly.
func removeLoaders(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Compile parses source as a Lua chunk and returns a Producer that runs
// it. name identifies the fragment in compile and runtime errors.
//
// The chunk's return value maps onto the producer contract: a string or
// number is the produced value, nil, false or no return mean absent,
// and anything else is a producer error. Lua runtime errors surface as
// producer errors and leave the Engine usable.
func (e *Engine) Compile(name, source string) (statusline.Producer, error) {
	if e.closed {
		return nil, fmt.Errorf("fragment %q: %w", name, ErrClosed)
	}

	fn, err := e.L.Load(strings.NewReader(source), name)
	if err != nil {
		return nil, fmt.Errorf("fragment %q: %w", name, err)
	}

	return statusline.ProducerFunc(func() (string, error) {
		return e.run(name, fn)
	}), nil
}

func (e *Engine) run(name string, fn *lua.LFunction) (val string, err error) {
	if e.closed {
		return "", fmt.Errorf("fragment %q: %w", name, ErrClosed)
	}

	defer func() {
		if r := recover(); r != nil {
			val = ""
			err = fmt.Errorf("fragment %q: lua panic: %v", name, r)
		}
	}()

	top := e.L.GetTop()
	e.L.Push(fn)
	if cerr := e.L.PCall(0, 1, nil); cerr != nil {
		e.L.SetTop(top)
		return "", fmt.Errorf("fragment %q: %w", name, cerr)
	}
	ret := e.L.Get(-1)
	e.L.SetTop(top)

	return marshal(name, ret)
}

func marshal(name string, v lua.LValue) (string, error) {
	switch v := v.(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LBool:
		// `cond and value` yields false when cond fails; treat it
		// like nil so the guard idiom reads as absence.
		if bool(v) {
			return "", fmt.Errorf("fragment %q: returned true, want string", name)
		}
		return "", nil
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		return v.String(), nil
	default:
		return "", fmt.Errorf("fragment %q: returned %s, want string", name, v.Type())
	}
}

// Close releases the Lua state. Compiled producers error with ErrClosed
// afterwards. Close is idempotent.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.L.Close()
	return nil
}
