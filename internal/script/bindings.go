package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cjennings/adrenaline/internal/statusline"
)

// installEditor publishes the read-only `editor` table. Every entry is
// a zero-argument function so scripts observe state at produce time,
// not at compile time.
func (e *Engine) installEditor() {
	t := e.L.NewTable()

	bind := func(name string, fn lua.LGFunction) {
		e.L.SetField(t, name, e.L.NewFunction(fn))
	}

	bind("line", func(L *lua.LState) int {
		line, _ := e.state.CursorPosition()
		L.Push(lua.LNumber(line))
		return 1
	})

	bind("column", func(L *lua.LState) int {
		_, col := e.state.CursorPosition()
		L.Push(lua.LNumber(col))
		return 1
	})

	bind("buffer_name", func(L *lua.LState) int {
		L.Push(lua.LString(e.state.BufferName()))
		return 1
	})

	bind("directory", func(L *lua.LState) int {
		dir, ok := e.state.FileDirectory()
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(dir))
		return 1
	})

	bind("modified", func(L *lua.LState) int {
		L.Push(lua.LBool(e.state.Modified()))
		return 1
	})

	bind("mode", func(L *lua.LState) int {
		L.Push(lua.LString(e.state.MajorMode()))
		return 1
	})

	bind("width", func(L *lua.LState) int {
		L.Push(lua.LNumber(e.width()))
		return 1
	})

	bind("branch", func(L *lua.LState) int {
		info, ok := e.branchInfo()
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(info.Branch))
		return 1
	})

	bind("project", func(L *lua.LState) int {
		info, ok := e.branchInfo()
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(info.Project))
		return 1
	})

	e.L.SetGlobal("editor", t)
}

func (e *Engine) branchInfo() (statusline.Info, bool) {
	if e.branches == nil {
		return statusline.Info{}, false
	}
	dir, ok := e.state.FileDirectory()
	if !ok {
		return statusline.Info{}, false
	}
	return e.branches.BranchInfo(dir)
}
