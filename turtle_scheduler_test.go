package main

import (
	"slices"
	"testing"
)

// recordingCore counts steps and records raised lines
type recordingCore struct {
	steps     int
	lines     []int
	running   bool
	haltAfter int
}

func (c *recordingCore) Step() {
	c.steps++
	if c.haltAfter > 0 && c.steps >= c.haltAfter {
		c.running = false
	}
}

func (c *recordingCore) RaiseInterrupt(line int) { c.lines = append(c.lines, line) }

func (c *recordingCore) IsRunning() bool { return c.running }

func newScheduledTurtle(s *TurtleScheduler, canvas *Canvas, core TurtleCore) *TurtleInstance {
	inst := NewTurtleInstance(len(s.Instances()), canvas)
	inst.Core = core
	s.Add(inst)
	return inst
}

func TestScheduler_StepsEachCorePerCycle(t *testing.T) {
	s := NewTurtleScheduler(5)
	canvas := NewCanvas(100, 100)
	a := &recordingCore{running: true}
	b := &recordingCore{running: true, haltAfter: 2}
	newScheduledTurtle(s, canvas, a)
	newScheduledTurtle(s, canvas, b)

	s.RunFrame()
	if a.steps != 5 || b.steps != 2 {
		t.Fatalf("steps a=%d b=%d, expected 5 and 2", a.steps, b.steps)
	}
	if s.Frame() != 1 {
		t.Fatalf("frame %d, expected 1", s.Frame())
	}
	if !s.AnyRunning() {
		t.Fatal("AnyRunning false with a live core")
	}
}

func TestScheduler_MinimumOneCycle(t *testing.T) {
	if got := NewTurtleScheduler(0).CyclesPerFrame(); got != 1 {
		t.Fatalf("cycles per frame %d, expected 1", got)
	}
}

func TestScheduler_MotionContinuesAfterHalt(t *testing.T) {
	s := NewTurtleScheduler(10)
	inst := newScheduledTurtle(s, NewCanvas(100, 100), nil)
	inst.Engine.SetTarget(Vec2{50, 30})
	inst.Engine.ArmSeek()

	if s.AnyRunning() {
		t.Fatal("instance without a core counted as running")
	}
	for i := 0; i < 5; i++ {
		s.RunFrame()
	}
	if inst.Engine.Position() != (Vec2{50, 30}) {
		t.Fatalf("position %v, expected (50,30)", inst.Engine.Position())
	}
}

func TestScheduler_ControllerWindowBeforeCommit(t *testing.T) {
	s := NewTurtleScheduler(1)
	inst := newScheduledTurtle(s, NewCanvas(100, 100), &recordingCore{running: true})
	inst.Engine.SetTarget(Vec2{50, 80})
	inst.Engine.ArmSeek()

	s.RunFrame()
	if inst.Engine.Position() != (Vec2{50, 50}) || !inst.Engine.Pending() {
		t.Fatalf("first frame should only plan: at %v pending=%v", inst.Engine.Position(), inst.Engine.Pending())
	}

	// The controller vetoes the planned move through its bus
	inst.Bus.Write32(STOP_MOVE, 1)
	s.RunFrame()
	if inst.Engine.Position() != (Vec2{50, 50}) {
		t.Fatalf("vetoed move committed: at %v", inst.Engine.Position())
	}
	s.RunFrame()
	if inst.Engine.Position() == (Vec2{50, 50}) {
		t.Fatal("turtle never moved after the veto")
	}
}

func TestScheduler_SignalsReachCoreAndObserver(t *testing.T) {
	s := NewTurtleScheduler(1)
	core := &recordingCore{running: true}
	inst := newScheduledTurtle(s, NewCanvas(100, 100), core)
	inst.Engine.SetPosition(Vec2{2, 50})
	inst.Engine.SetHeading(270)
	inst.Engine.SetForward(true)

	type observed struct {
		id  int
		sig TurtleSignal
	}
	var seen []observed
	s.OnSignal = func(id int, sig TurtleSignal) {
		seen = append(seen, observed{id, sig})
	}

	s.RunFrame()
	if !slices.Equal(core.lines, []int{TURTLE_INT_HIT_EDGE}) {
		t.Fatalf("core lines %v, expected [hit-edge]", core.lines)
	}
	if len(seen) != 1 || seen[0] != (observed{0, SignalHitEdge}) {
		t.Fatalf("observer saw %v", seen)
	}
}

func TestScheduler_LaterInstanceWinsOverlap(t *testing.T) {
	s := NewTurtleScheduler(1)
	canvas := NewCanvas(100, 100)
	for _, col := range []uint16{0xF800, 0x001F} {
		inst := newScheduledTurtle(s, canvas, nil)
		e := inst.Engine
		e.SetPosition(Vec2{40, 60})
		e.SetTarget(Vec2{60, 60})
		e.SetSpeed(30)
		e.SetPenSize(2)
		e.SetPenColor(col)
		e.SetPenDown(true)
		e.ArmSeek()
	}
	s.RunFrame()
	s.RunFrame()
	if got := canvas.GetPacked(50, 60); got != 0x001F {
		t.Fatalf("(50,60) = 0x%04X, expected the second instance's colour", got)
	}
}

func TestScheduler_AddSealsBus(t *testing.T) {
	s := NewTurtleScheduler(1)
	inst := newScheduledTurtle(s, NewCanvas(10, 10), nil)
	expectPanic(t, func() {
		inst.Bus.MapIO(0x8000, 0x80FF, nil, nil)
	})
}

func TestScheduler_IE32ProgramSeeksTarget(t *testing.T) {
	s := NewTurtleScheduler(100)
	inst := NewTurtleInstance(0, NewCanvas(200, 200))
	cpu := NewCPU(inst.Bus)
	program := [][]byte{
		createInstruction(LDA, 0, ADDR_IMMEDIATE, 150),
		createInstruction(STA, 0, ADDR_IMMEDIATE, SET_X),
		createInstruction(LDA, 0, ADDR_IMMEDIATE, 100),
		createInstruction(STA, 0, ADDR_IMMEDIATE, SET_Y),
		createInstruction(STA, 0, ADDR_IMMEDIATE, GOTO_XY),
		createInstruction(HALT, 0, 0, 0),
	}
	var image []byte
	for _, instr := range program {
		image = append(image, instr...)
	}
	if err := cpu.LoadProgramBytes(image); err != nil {
		t.Fatal(err)
	}
	inst.Core = cpu
	s.Add(inst)

	var moveDone int
	s.OnSignal = func(_ int, sig TurtleSignal) {
		if sig == SignalMoveDone {
			moveDone++
		}
	}

	// 50 units at 6 per frame, plus the frame that runs the program
	for i := 0; i < 12; i++ {
		s.RunFrame()
	}
	if inst.Engine.Position() != (Vec2{150, 100}) {
		t.Fatalf("position %v, expected (150,100)", inst.Engine.Position())
	}
	if moveDone != 1 {
		t.Fatalf("move-done raised %d times, expected 1", moveDone)
	}
	if cpu.PendingInterrupts()&(1<<TURTLE_INT_MOVE_DONE) == 0 {
		t.Fatal("move-done not latched on the halted CPU")
	}
}

func BenchmarkScheduler_RunFrame(b *testing.B) {
	s := NewTurtleScheduler(CPU_TICKS_PER_SECOND / DEFAULT_FPS)
	canvas := NewCanvas(640, 500)
	for i := 0; i < 4; i++ {
		newScheduledTurtle(s, canvas, &recordingCore{running: true})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.RunFrame()
	}
}
