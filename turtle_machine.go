// turtle_machine.go - Machine assembly and render loop for TeenyTurtle

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
turtle_machine.go - Turtle Machine

A TurtleMachine owns everything one run needs: the shared canvas, the
scheduler with one instance per turtle, the frame composer, the video
output and the optional beeper and host keyboard.

Run loop per frame:

 1. scheduler.RunFrame()
 2. snapshot turtle statuses for the status bar
 3. compose canvas + sprites and hand the pixels to the video output
 4. WaitForVSync()

The loop ends when the context is cancelled, the window is closed, the
frame limit is reached or no core is running any more.
*/

package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"slices"
	"sync"
	"time"
)

type TurtleMachine struct {
	config    TurtleConfig
	canvas    *Canvas
	scheduler *TurtleScheduler
	composer  *FrameComposer
	video     VideoOutput
	keys      *KeyBroadcaster
	beeper    *Beeper
	host      *TerminalHost

	statusMu sync.Mutex
	statuses []TurtleStatus

	luaCores []*LuaCore
}

// NewTurtleMachine loads the canvas, sprite and program and builds one
// instance per turtle. The video output is attached with SetVideoOutput.
func NewTurtleMachine(cfg TurtleConfig) (*TurtleMachine, error) {
	var canvas *Canvas
	if cfg.CanvasImage != "" {
		c, err := LoadCanvas(cfg.CanvasImage)
		if err != nil {
			return nil, err
		}
		canvas = c
	} else {
		canvas = NewCanvas(cfg.Width, cfg.Height)
	}

	var sprite image.Image
	if cfg.Sprite != "" {
		img, err := LoadSprite(cfg.Sprite)
		if err != nil {
			return nil, err
		}
		sprite = img
	}

	m := &TurtleMachine{
		config:    cfg,
		canvas:    canvas,
		scheduler: NewTurtleScheduler(CPU_TICKS_PER_SECOND / cfg.FPS),
		composer:  NewFrameComposer(canvas.Width(), canvas.Height(), sprite),
		keys:      &KeyBroadcaster{},
	}
	m.scheduler.Verbose = cfg.Verbose

	var program []byte
	if cfg.ProgramKind == PROGRAM_KIND_IE32 {
		data, err := os.ReadFile(cfg.Program)
		if err != nil {
			return nil, &TurtleError{Operation: "program load", Details: cfg.Program, Err: err}
		}
		program = data
	}

	seed := uint64(time.Now().UnixNano())
	for i := 0; i < cfg.Turtles; i++ {
		inst := NewTurtleInstance(i, canvas)
		inst.Engine.SetFrameRate(cfg.FPS)
		inst.Engine.SetSpeed(cfg.Speed)
		inst.Engine.SeedRandom(seed + uint64(i))
		inst.Terminal.SetCharOutputCallback(func(b byte) {
			os.Stdout.Write([]byte{b})
		})
		m.keys.Add(inst.Terminal)

		core, err := m.newCore(inst, program)
		if err != nil {
			m.Close()
			return nil, err
		}
		inst.Core = core
		m.scheduler.Add(inst)
	}
	m.snapshotStatus()
	return m, nil
}

func (m *TurtleMachine) newCore(inst *TurtleInstance, program []byte) (TurtleCore, error) {
	name := fmt.Sprintf("turtle[%d]", inst.ID)
	if m.config.ProgramKind == PROGRAM_KIND_LUA {
		core, err := NewLuaCore(inst.Bus, m.config.Program, name)
		if err != nil {
			return nil, err
		}
		core.Debug = m.config.Verbose
		m.luaCores = append(m.luaCores, core)
		return core, nil
	}
	cpu := NewCPU(inst.Bus)
	cpu.Name = name
	cpu.Debug = m.config.Verbose
	if err := cpu.LoadProgramBytes(program); err != nil {
		return nil, fmt.Errorf("%s: %w", m.config.Program, err)
	}
	return cpu, nil
}

func (m *TurtleMachine) Canvas() *Canvas { return m.canvas }

func (m *TurtleMachine) Scheduler() *TurtleScheduler { return m.scheduler }

// SetVideoOutput configures the output for the canvas and wires keyboard
// and status bar where the backend supports them
func (m *TurtleMachine) SetVideoOutput(video VideoOutput) error {
	err := video.SetDisplayConfig(DisplayConfig{
		Width:       m.canvas.Width(),
		Height:      m.canvas.Height(),
		Scale:       m.config.Scale,
		RefreshRate: m.config.FPS,
		VSync:       !m.config.Headless,
		Title:       "TeenyTurtle - " + m.config.Program,
	})
	if err != nil {
		return err
	}
	if kb, ok := video.(KeyboardInput); ok {
		kb.SetKeyHandler(m.keys.RouteHostKey)
	}
	if sd, ok := video.(StatusDisplay); ok {
		sd.SetStatusProvider(m.Statuses)
	}
	m.video = video
	return nil
}

// EnableSound starts the beeper and routes every signal to it
func (m *TurtleMachine) EnableSound() error {
	b := NewBeeper(BEEPER_SAMPLE_RATE)
	if err := b.Start(); err != nil {
		return err
	}
	m.beeper = b
	m.scheduler.OnSignal = b.Trigger
	return nil
}

// EnableHostKeys feeds raw terminal input into every KEY_IN queue
func (m *TurtleMachine) EnableHostKeys() {
	m.host = NewTerminalHost(m.keys)
	m.host.Start()
}

// Statuses returns the snapshot taken after the last frame
func (m *TurtleMachine) Statuses() []TurtleStatus {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	out := make([]TurtleStatus, len(m.statuses))
	copy(out, m.statuses)
	return out
}

func (m *TurtleMachine) snapshotStatus() {
	statuses := make([]TurtleStatus, 0, len(m.scheduler.Instances()))
	for _, inst := range m.scheduler.Instances() {
		statuses = append(statuses, inst.Engine.Status())
	}
	m.statusMu.Lock()
	m.statuses = statuses
	m.statusMu.Unlock()
}

// Step runs one frame and presents it
func (m *TurtleMachine) Step() error {
	m.scheduler.RunFrame()
	m.snapshotStatus()
	if m.video == nil {
		return nil
	}
	frame := m.composer.Compose(m.canvas, m.Statuses())
	if err := m.video.UpdateFrame(frame.Pix); err != nil {
		return err
	}
	return m.video.WaitForVSync()
}

// Run steps frames until ctx is done, the output closes, the frame limit is
// reached or every core has halted
func (m *TurtleMachine) Run(ctx context.Context) error {
	var done <-chan struct{}
	if c, ok := m.video.(ClosableOutput); ok {
		done = c.Done()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		default:
		}
		if m.config.Frames > 0 && m.scheduler.Frame() >= m.config.Frames {
			return nil
		}
		if !m.scheduler.AnyRunning() && !m.anyMoving() {
			if m.config.Verbose {
				fmt.Printf("machine: all cores halted after %d frames\n", m.scheduler.Frame())
			}
			return nil
		}
		before := m.Statuses()
		if err := m.Step(); err != nil {
			return err
		}
		// A halted program whose seek is pinned against an edge never arrives
		if !m.scheduler.AnyRunning() && slices.Equal(before, m.Statuses()) {
			return nil
		}
	}
}

// anyMoving keeps the loop alive while a halted program's last move finishes
func (m *TurtleMachine) anyMoving() bool {
	for _, inst := range m.scheduler.Instances() {
		if inst.Engine.Seeking() || inst.Engine.Pending() {
			return true
		}
	}
	return false
}

// SaveOutput writes the canvas to the -out path if one was given
func (m *TurtleMachine) SaveOutput() error {
	if m.config.OutputPNG == "" {
		return nil
	}
	return m.canvas.SavePNG(m.config.OutputPNG)
}

func (m *TurtleMachine) Close() {
	if m.host != nil {
		m.host.Stop()
		m.host = nil
	}
	if m.beeper != nil {
		m.beeper.Stop()
		m.beeper = nil
	}
	for _, core := range m.luaCores {
		core.Close()
	}
	m.luaCores = nil
	if m.video != nil {
		m.video.Close()
	}
}
