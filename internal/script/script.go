// Package script runs the optional user init.lua hook.
//
// The script can bind keys to Lua functions and fire named host
// actions. Script errors surface as notices and log entries; they
// never take the dispatcher down.
package script

import (
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/notify"
)

// Binder attaches user functions to key specs. The router implements
// it.
type Binder interface {
	BindCustom(keys string, fn func()) error
}

// Logger is the subset of the app logger the engine needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// Deps are the engine's collaborators.
type Deps struct {
	Binder   Binder
	Executor host.Executor
	Notices  *notify.Hub
	Log      Logger
}

// Engine owns one Lua state. gopher-lua states are not
// goroutine-safe; every call into the state goes through the engine's
// mutex.
type Engine struct {
	mu     sync.Mutex
	L      *lua.LState
	deps   Deps
	closed bool
}

// New creates an engine with a sandboxed Lua state and the keypilot
// API registered.
func New(deps Deps) *Engine {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Open a limited library set; no io, no os.
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	e := &Engine{L: L, deps: deps}

	api := L.NewTable()
	L.SetField(api, "bind", L.NewFunction(e.luaBind))
	L.SetField(api, "command", L.NewFunction(e.luaCommand))
	L.SetGlobal("keypilot", api)

	return e
}

// LoadFile runs an init.lua. A missing file is not an error; a broken
// one is reported and returned, leaving already-applied bindings
// intact.
func (e *Engine) LoadFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	err := e.L.DoFile(path)
	e.mu.Unlock()

	if err != nil {
		e.report("init.lua: %v", err)
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// Close shuts the Lua state down. Idempotent; bound functions become
// no-ops.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.L.Close()
}

// luaBind implements keypilot.bind(keys, fn).
func (e *Engine) luaBind(L *lua.LState) int {
	keys := L.CheckString(1)
	fn := L.CheckFunction(2)

	err := e.deps.Binder.BindCustom(keys, func() {
		e.call(keys, fn)
	})
	if err != nil {
		L.RaiseError("bind %s: %s", keys, err)
	}
	return 0
}

// luaCommand implements keypilot.command(name).
func (e *Engine) luaCommand(L *lua.LState) int {
	name := L.CheckString(1)
	if e.deps.Executor != nil {
		e.deps.Executor.Execute(name)
	}
	return 0
}

// call invokes a bound Lua function from a key dispatch.
func (e *Engine) call(keys string, fn *lua.LFunction) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	err := e.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	e.mu.Unlock()

	if err != nil {
		e.report("binding %s: %v", keys, err)
	}
}

func (e *Engine) report(format string, args ...any) {
	if e.deps.Log != nil {
		e.deps.Log.Warn("script: "+format, args...)
	}
	if e.deps.Notices != nil {
		e.deps.Notices.Noticef("script error: "+format, args...)
	}
}
