package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func newLuaTestCore(t *testing.T, source string) (*LuaCore, *TurtleInstance) {
	t.Helper()
	inst := NewTurtleInstance(3, NewCanvas(200, 200))
	core, err := NewLuaCoreFromString(inst.Bus, source, "turtle[3]")
	if err != nil {
		t.Fatalf("NewLuaCoreFromString: %v", err)
	}
	t.Cleanup(core.Close)
	inst.Core = core
	return core, inst
}

func stepLua(c *LuaCore, n int) {
	for i := 0; i < n; i++ {
		c.Step()
	}
}

func TestLuaCore_PokeCostsOneTick(t *testing.T) {
	core, inst := newLuaTestCore(t, `
function main()
  poke(SET_X, 150)
  poke(SET_Y, 60)
  poke(GOTO_XY, 1)
end`)

	stepLua(core, 2)
	if inst.Engine.Target() != (Vec2{150, 60}) || inst.Engine.Seeking() {
		t.Fatalf("after 2 steps: target %v seeking=%v", inst.Engine.Target(), inst.Engine.Seeking())
	}
	stepLua(core, 1)
	if !inst.Engine.Seeking() {
		t.Fatal("GOTO_XY not written on the third step")
	}
	if !core.IsRunning() {
		t.Fatal("core stopped before main() returned")
	}
	stepLua(core, 1)
	if core.IsRunning() {
		t.Fatal("core still running after main() returned")
	}
}

func TestLuaCore_PeekReturnsRegister(t *testing.T) {
	core, inst := newLuaTestCore(t, `
function main()
  local id = peek(TURTLE_ID)
  poke(SET_X, id + 7)
end`)
	stepLua(core, 2)
	if got := inst.Engine.Target().X; got != 10 {
		t.Fatalf("SET_X = %v, expected 10", got)
	}
}

func TestLuaCore_MemoryWords(t *testing.T) {
	core, inst := newLuaTestCore(t, `
function main()
  poke(0x2000, 0xDEADBEEF)
  poke(0x2004, peek(0x2000))
end`)
	stepLua(core, 4)
	if got := inst.Bus.Read32(0x2004); got != 0xDEADBEEF {
		t.Fatalf("memory word 0x%X, expected 0xDEADBEEF", got)
	}
}

func TestLuaCore_WaitIdles(t *testing.T) {
	core, inst := newLuaTestCore(t, `
function main()
  wait(5)
  poke(TURTLE_SPEED, 9)
end`)
	stepLua(core, 5)
	if got := inst.Engine.HandleRead(TURTLE_SPEED); got == 9 {
		t.Fatal("poke ran inside the wait")
	}
	stepLua(core, 1)
	if got := inst.Engine.HandleRead(TURTLE_SPEED); got != 9 {
		t.Fatalf("TURTLE_SPEED = %d after the wait, expected 9", got)
	}
}

func TestLuaCore_SignalRunsHandler(t *testing.T) {
	core, _ := newLuaTestCore(t, `
hits = 0
function on_hit_edge() hits = hits + 1 end
function main()
  while true do wait(1000) end
end`)
	stepLua(core, 1)
	core.RaiseInterrupt(TURTLE_INT_HIT_EDGE)
	core.RaiseInterrupt(TURTLE_INT_HIT_EDGE)
	stepLua(core, 1)

	if got := core.L.GetGlobal("hits"); got != lua.LNumber(1) {
		t.Fatalf("hits = %v, expected 1", got)
	}
	if core.PendingInterrupts() != 0 {
		t.Fatalf("pending 0x%X after handler", core.PendingInterrupts())
	}
}

func TestLuaCore_HandlerOrderAndPeek(t *testing.T) {
	core, _ := newLuaTestCore(t, `
order = ""
function on_move_done() order = order .. "m" end
function on_color_change() order = order .. "c" .. peek(TURTLE_ID) end
function main()
  while true do wait(1000) end
end`)
	stepLua(core, 1)
	core.RaiseInterrupt(TURTLE_INT_COLOR_CHANGE)
	core.RaiseInterrupt(TURTLE_INT_MOVE_DONE)
	stepLua(core, 2)

	if got := core.L.GetGlobal("order").String(); got != "mc3" {
		t.Fatalf("order = %q, expected \"mc3\"", got)
	}
}

func TestLuaCore_SignalEndsWait(t *testing.T) {
	core, inst := newLuaTestCore(t, `
function on_move_done() end
function main()
  wait(1000000)
  poke(TURTLE_SPEED, 9)
end`)
	stepLua(core, 1)
	core.RaiseInterrupt(TURTLE_INT_MOVE_DONE)
	stepLua(core, 2)
	if got := inst.Engine.HandleRead(TURTLE_SPEED); got != 9 {
		t.Fatalf("TURTLE_SPEED = %d, expected the wait to end", got)
	}
}

func TestLuaCore_SignalWithoutHandlerIsDropped(t *testing.T) {
	core, inst := newLuaTestCore(t, `
function main()
  poke(TURTLE_SPEED, 9)
end`)
	core.RaiseInterrupt(TURTLE_INT_HIT_EDGE)
	stepLua(core, 1)
	if got := inst.Engine.HandleRead(TURTLE_SPEED); got != 9 {
		t.Fatal("main() did not run in the same step")
	}
}

func TestLuaCore_RuntimeErrorHalts(t *testing.T) {
	core, _ := newLuaTestCore(t, `
function main()
  error("boom")
end`)
	stepLua(core, 1)
	if core.IsRunning() {
		t.Fatal("core survived a runtime error")
	}
	stepLua(core, 1)
	if core.Cycles != 1 {
		t.Fatalf("halted core counted %d cycles", core.Cycles)
	}
}

func TestLuaCore_HandlerErrorHalts(t *testing.T) {
	core, _ := newLuaTestCore(t, `
function on_hit_edge() error("bad handler") end
function main()
  while true do wait(10) end
end`)
	core.RaiseInterrupt(TURTLE_INT_HIT_EDGE)
	stepLua(core, 1)
	if core.IsRunning() {
		t.Fatal("core survived a handler error")
	}
}

func TestLuaCore_LoadErrors(t *testing.T) {
	bus := NewMachineBus()
	var te *TurtleError
	if _, err := NewLuaCoreFromString(bus, `x = 1`, "nomain"); !errors.As(err, &te) {
		t.Fatalf("missing main: got %v, expected *TurtleError", err)
	}
	if _, err := NewLuaCoreFromString(bus, `function main( end`, "syntax"); !errors.As(err, &te) {
		t.Fatalf("syntax error: got %v, expected *TurtleError", err)
	}
	if _, err := NewLuaCore(bus, filepath.Join(t.TempDir(), "missing.lua"), "missing"); !errors.As(err, &te) {
		t.Fatalf("missing file: got %v, expected *TurtleError", err)
	}
}

func TestLuaCore_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turtle.lua")
	if err := os.WriteFile(path, []byte("function main() poke(PEN_SIZE, 2) end\n"), 0644); err != nil {
		t.Fatal(err)
	}
	inst := NewTurtleInstance(0, NewCanvas(50, 50))
	core, err := NewLuaCore(inst.Bus, path, "turtle[0]")
	if err != nil {
		t.Fatalf("NewLuaCore: %v", err)
	}
	defer core.Close()
	core.Step()
	if inst.Engine.Pen().Size != 2 {
		t.Fatalf("pen size %d, expected 2", inst.Engine.Pen().Size)
	}
}
