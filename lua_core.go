// lua_core.go - Lua controller core for TeenyTurtle

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

/*
lua_core.go - Lua Turtle Controller

A LuaCore drives a turtle from a Lua script instead of an IE32 program. It
satisfies TurtleCore, so the scheduler steps it exactly like a CPU.

Script contract:

  function main() ... end        required, runs as a coroutine
  function on_move_done() end    optional signal handlers
  function on_hit_edge() end
  function on_color_change() end

Builtins:

  peek(addr)       read a register or memory word
  poke(addr, v)    write a register or memory word
  wait(n)          idle for n ticks (woken early by a signal)

Every register name from the turtle and terminal maps is a global number.

Timing: main() yields after every peek, poke and wait, so each costs one
Step(). A pending signal runs its handler to completion in a single Step()
on the main state, before main() is resumed.
*/

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

var luaSignalHandlers = [TURTLE_INT_COUNT]string{
	TURTLE_INT_MOVE_DONE:    "on_move_done",
	TURTLE_INT_HIT_EDGE:     "on_hit_edge",
	TURTLE_INT_COLOR_CHANGE: "on_color_change",
}

type LuaCore struct {
	Name  string
	Debug bool

	bus Bus32
	L   *lua.LState
	co  *lua.LState
	fn  *lua.LFunction

	running    bool
	pendingIRQ uint32
	waitTicks  uint32
	resumeArgs []lua.LValue

	Cycles uint64
}

func newLuaCore(bus Bus32, name string) *LuaCore {
	c := &LuaCore{
		Name:    name,
		bus:     bus,
		L:       lua.NewState(),
		running: true,
	}
	c.L.SetGlobal("peek", c.L.NewFunction(c.luaPeek))
	c.L.SetGlobal("poke", c.L.NewFunction(c.luaPoke))
	c.L.SetGlobal("wait", c.L.NewFunction(c.luaWait))
	for name, addr := range turtleRegisterNames {
		c.L.SetGlobal(name, lua.LNumber(addr))
	}
	return c
}

// NewLuaCore loads a script file and prepares main() as a coroutine
func NewLuaCore(bus Bus32, path string, name string) (*LuaCore, error) {
	c := newLuaCore(bus, name)
	if err := c.L.DoFile(path); err != nil {
		c.L.Close()
		return nil, &TurtleError{Operation: "lua load", Details: path, Err: err}
	}
	if err := c.prepareMain(path); err != nil {
		c.L.Close()
		return nil, err
	}
	return c, nil
}

// NewLuaCoreFromString is NewLuaCore for in-memory scripts
func NewLuaCoreFromString(bus Bus32, source string, name string) (*LuaCore, error) {
	c := newLuaCore(bus, name)
	if err := c.L.DoString(source); err != nil {
		c.L.Close()
		return nil, &TurtleError{Operation: "lua load", Details: name, Err: err}
	}
	if err := c.prepareMain(name); err != nil {
		c.L.Close()
		return nil, err
	}
	return c, nil
}

func (c *LuaCore) prepareMain(source string) error {
	fn, ok := c.L.GetGlobal("main").(*lua.LFunction)
	if !ok {
		return &TurtleError{Operation: "lua load", Details: source + ": no main() function"}
	}
	c.fn = fn
	c.co, _ = c.L.NewThread()
	return nil
}

func (c *LuaCore) Close() {
	c.running = false
	c.L.Close()
}

func (c *LuaCore) IsRunning() bool { return c.running }

func (c *LuaCore) RaiseInterrupt(line int) {
	if line < 0 || line >= TURTLE_INT_COUNT {
		return
	}
	c.pendingIRQ |= 1 << uint(line)
}

func (c *LuaCore) PendingInterrupts() uint32 { return c.pendingIRQ }

func (c *LuaCore) halt(format string, args ...any) {
	fmt.Printf("%s: "+format+"\n", append([]any{c.Name}, args...)...)
	c.running = false
}

// Step advances the script by one tick
func (c *LuaCore) Step() {
	if !c.running {
		return
	}
	c.Cycles++

	if c.pendingIRQ != 0 {
		line := 0
		for c.pendingIRQ&(1<<uint(line)) == 0 {
			line++
		}
		c.pendingIRQ &^= 1 << uint(line)
		if handler, ok := c.L.GetGlobal(luaSignalHandlers[line]).(*lua.LFunction); ok {
			c.waitTicks = 0
			if c.Debug {
				fmt.Printf("%s: %s\n", c.Name, luaSignalHandlers[line])
			}
			if err := c.L.CallByParam(lua.P{Fn: handler, NRet: 0, Protect: true}); err != nil {
				c.halt("%s failed: %v", luaSignalHandlers[line], err)
			}
			return
		}
	}

	if c.waitTicks > 0 {
		c.waitTicks--
		return
	}

	args := c.resumeArgs
	c.resumeArgs = nil
	st, err, _ := c.L.Resume(c.co, c.fn, args...)
	switch st {
	case lua.ResumeError:
		c.halt("runtime error: %v", err)
	case lua.ResumeOK:
		if c.Debug {
			fmt.Printf("%s: main() returned\n", c.Name)
		}
		c.running = false
	}
}

// pause yields the coroutine so the call costs a tick; handlers run straight through
func (c *LuaCore) pause(L *lua.LState, results ...lua.LValue) int {
	if L != c.co {
		for _, v := range results {
			L.Push(v)
		}
		return len(results)
	}
	c.resumeArgs = results
	return L.Yield()
}

func (c *LuaCore) luaPeek(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	return c.pause(L, lua.LNumber(c.bus.Read32(addr)))
}

func (c *LuaCore) luaPoke(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	value := uint32(L.CheckInt64(2))
	c.bus.Write32(addr, value)
	return c.pause(L)
}

func (c *LuaCore) luaWait(L *lua.LState) int {
	n := L.OptInt64(1, 1)
	if n > 1 && L == c.co {
		c.waitTicks = uint32(min(n, 1<<31)) - 1
	}
	return c.pause(L)
}
