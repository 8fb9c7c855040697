// turtle_scheduler.go - Deterministic multiplexing of turtles on one canvas

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
turtle_scheduler.go - Turtle Scheduler

Each turtle instance is a TurtleEngine, the MachineBus its registers are
mapped on and the core that runs its program. Instances are simulated in
sequence inside one goroutine; there is no real concurrency between turtles.

Frame order:

 1. cyclesPerFrame rounds, each stepping every running core once in
    instance order
 2. for every instance in order: Commit() the move planned last frame,
    then Plan() the next one

Signals raised by Plan() are serviced by the cores during step 1 of the
following frame, before that move is committed. Strokes of later instances
overwrite those of earlier ones.
*/

package main

import "fmt"

// TurtleCore is the processor driving one turtle
type TurtleCore interface {
	Step()
	RaiseInterrupt(line int)
	IsRunning() bool
}

type TurtleInstance struct {
	ID       int
	Engine   *TurtleEngine
	Bus      *MachineBus
	Terminal *TerminalMMIO
	Core     TurtleCore
}

// NewTurtleInstance builds an engine and a bus with the turtle and terminal
// registers mapped. The core is attached separately.
func NewTurtleInstance(id int, canvas *Canvas) *TurtleInstance {
	engine := NewTurtleEngine(id, canvas)
	bus := NewMachineBus()
	terminal := NewTerminalMMIO()

	bus.MapIO(TURTLE_REG_BASE, TURTLE_REG_END, engine.HandleRead, engine.HandleWrite)
	bus.MapIO(TERM_REG_BASE, TERM_REG_END, terminal.HandleRead, terminal.HandleWrite)

	return &TurtleInstance{
		ID:       id,
		Engine:   engine,
		Bus:      bus,
		Terminal: terminal,
	}
}

func (inst *TurtleInstance) Running() bool {
	return inst.Core != nil && inst.Core.IsRunning()
}

type TurtleScheduler struct {
	instances      []*TurtleInstance
	cyclesPerFrame int
	frame          uint64

	// OnSignal observes every signal after it reached the core
	OnSignal func(id int, sig TurtleSignal)
	Verbose  bool
}

func NewTurtleScheduler(cyclesPerFrame int) *TurtleScheduler {
	return &TurtleScheduler{
		cyclesPerFrame: max(cyclesPerFrame, 1),
	}
}

// Add appends an instance and routes its signals to its core
func (s *TurtleScheduler) Add(inst *TurtleInstance) {
	inst.Engine.SetSignalHandler(func(sig TurtleSignal) {
		if s.Verbose {
			fmt.Printf("turtle[%d]: %s at (%.1f, %.1f)\n", inst.ID, sig, inst.Engine.Position().X, inst.Engine.Position().Y)
		}
		if inst.Core != nil {
			inst.Core.RaiseInterrupt(int(sig))
		}
		if s.OnSignal != nil {
			s.OnSignal(inst.ID, sig)
		}
	})
	inst.Bus.SealMappings()
	s.instances = append(s.instances, inst)
}

func (s *TurtleScheduler) Instances() []*TurtleInstance { return s.instances }

func (s *TurtleScheduler) Frame() uint64 { return s.frame }

func (s *TurtleScheduler) CyclesPerFrame() int { return s.cyclesPerFrame }

// AnyRunning reports whether at least one core can still execute
func (s *TurtleScheduler) AnyRunning() bool {
	for _, inst := range s.instances {
		if inst.Running() {
			return true
		}
	}
	return false
}

// RunFrame advances every instance by one video frame
func (s *TurtleScheduler) RunFrame() {
	for cycle := 0; cycle < s.cyclesPerFrame; cycle++ {
		stepped := false
		for _, inst := range s.instances {
			if inst.Running() {
				inst.Core.Step()
				stepped = true
			}
		}
		if !stepped {
			break
		}
	}

	for _, inst := range s.instances {
		inst.Engine.Commit()
		inst.Engine.Plan()
	}
	s.frame++
}
