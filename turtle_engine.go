// turtle_engine.go - Turtle graphics device for TeenyTurtle

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
turtle_engine.go - Turtle Motion and Detection Engine

This module implements the turtle device: a pen-carrying cursor that a
program steers through memory-mapped registers (see turtle_constants.go).

A motion tick is split in two halves so the controlling program can veto a
move before anything is drawn:

  Plan()   - plan the sub-target for this tick, scan it for colour changes,
             clamp it to the canvas and raise colour-change / hit-edge.
  Commit() - draw the stroke (pen down, not rolled back), move, and raise
             move-done when a seek reached its target.

The scheduler runs the controller between the two halves. Writing STOP_MOVE
in that window rewinds the pending sub-target to the position just before
the last reported colour change, and the stroke for the tick is skipped.

Signal Flow:
1. Scheduler calls Commit() then Plan() once per frame
2. Plan() raises signals through the handler set by the machine
3. The core services them and may read the colour change queue or STOP_MOVE
4. The next Commit() applies whatever sub-target survived
*/

package main

import (
	"image"
	"math"
	"math/rand/v2"
)

// TurtleSignal identifies an event delivered to the controlling core.
// Values double as interrupt line numbers.
type TurtleSignal int

const (
	SignalMoveDone    TurtleSignal = TURTLE_INT_MOVE_DONE
	SignalHitEdge     TurtleSignal = TURTLE_INT_HIT_EDGE
	SignalColorChange TurtleSignal = TURTLE_INT_COLOR_CHANGE
)

func (s TurtleSignal) String() string {
	switch s {
	case SignalMoveDone:
		return "move-done"
	case SignalHitEdge:
		return "hit-edge"
	case SignalColorChange:
		return "color-change"
	}
	return "unknown"
}

type TurtlePen struct {
	Down  bool
	Color uint16 // RGB565
	Size  int    // radius
}

// TurtleStatus is a read-only snapshot used by the status bar and logs
type TurtleStatus struct {
	ID       int
	Position Vec2
	Heading  float64
	Pen      TurtlePen
	Moving   bool
}

type TurtleEngine struct {
	id     int
	canvas *Canvas
	signal func(TurtleSignal)

	position Vec2
	target   Vec2
	heading  float64
	pen      TurtlePen
	speed    int
	fps      int

	// SeekTarget wins when both are armed
	seekArmed    bool
	forwardArmed bool

	// Pending half-tick between Plan and Commit
	subTarget        Vec2
	pending          bool
	arrived          bool
	rolledBack       bool

	changes      []ColorChange
	lastReported ColorChange
	hasReported  bool

	rng *rand.Rand
}

// NewTurtleEngine creates a turtle in the middle of the canvas, pen up
func NewTurtleEngine(id int, canvas *Canvas) *TurtleEngine {
	center := Vec2{float64(canvas.Width() / 2), float64(canvas.Height() / 2)}
	return &TurtleEngine{
		id:       id,
		canvas:   canvas,
		position: center,
		target:   center,
		pen: TurtlePen{
			Color: 0x0000,
			Size:  DEFAULT_PEN_SIZE,
		},
		speed:     DEFAULT_TURTLE_SPEED,
		fps:       DEFAULT_FPS,
		subTarget: center,
		rng:       rand.New(rand.NewPCG(uint64(id), 0x5EED)),
	}
}

// SetSignalHandler installs the callback that receives raised signals
func (t *TurtleEngine) SetSignalHandler(fn func(TurtleSignal)) {
	t.signal = fn
}

// SeedRandom reseeds the TURTLE_RANDOM generator
func (t *TurtleEngine) SeedRandom(seed uint64) {
	t.rng = rand.New(rand.NewPCG(seed, uint64(t.id)*2+1))
}

func (t *TurtleEngine) SetFrameRate(fps int) {
	if fps > 0 {
		t.fps = fps
	}
}

// SetSpeed ignores non-positive values and caps at MAX_TURTLE_SPEED
func (t *TurtleEngine) SetSpeed(speed int) {
	if speed > 0 {
		t.speed = min(speed, MAX_TURTLE_SPEED)
	}
}

func (t *TurtleEngine) SetPosition(p Vec2) {
	t.position, _ = clampToCanvas(p, t.canvas.Width(), t.canvas.Height())
	t.subTarget = t.position
}

func (t *TurtleEngine) SetTarget(p Vec2) { t.target = p }

func (t *TurtleEngine) SetHeading(h float64) { t.heading = normalizeHeading(h) }

func (t *TurtleEngine) ID() int             { return t.id }
func (t *TurtleEngine) Position() Vec2      { return t.position }
func (t *TurtleEngine) Target() Vec2        { return t.target }
func (t *TurtleEngine) Heading() float64    { return t.heading }
func (t *TurtleEngine) Pen() TurtlePen      { return t.pen }
func (t *TurtleEngine) Moving() bool        { return t.seekArmed || t.forwardArmed }
func (t *TurtleEngine) Seeking() bool       { return t.seekArmed }
func (t *TurtleEngine) Forwarding() bool    { return t.forwardArmed }
func (t *TurtleEngine) Pending() bool       { return t.pending }
func (t *TurtleEngine) SubTarget() Vec2     { return t.subTarget }
func (t *TurtleEngine) QueuedChanges() int  { return len(t.changes) }
func (t *TurtleEngine) Status() TurtleStatus {
	return TurtleStatus{
		ID:       t.id,
		Position: t.position,
		Heading:  t.heading,
		Pen:      t.pen,
		Moving:   t.Moving(),
	}
}

// ColorChanges returns a copy of the records still queued
func (t *TurtleEngine) ColorChanges() []ColorChange {
	out := make([]ColorChange, len(t.changes))
	copy(out, t.changes)
	return out
}

// LastReported returns the most recently popped colour change of this tick
func (t *TurtleEngine) LastReported() (ColorChange, bool) {
	return t.lastReported, t.hasReported
}

func (t *TurtleEngine) raise(sig TurtleSignal) {
	if t.signal != nil {
		t.signal(sig)
	}
}

// =============================================================================
// Pen
// =============================================================================

func (t *TurtleEngine) SetPenDown(down bool) {
	t.pen.Down = down
	t.stampDot()
}

func (t *TurtleEngine) SetPenColor(c uint16) {
	t.pen.Color = c
	t.stampDot()
}

func (t *TurtleEngine) SetPenSize(size int) {
	t.pen.Size = min(max(size, 0), MAX_PEN_SIZE)
	t.stampDot()
}

// stampDot marks the current position when the pen touches the canvas
func (t *TurtleEngine) stampDot() {
	if !t.pen.Down {
		return
	}
	t.canvas.StampDisc(t.position.Cell(), t.pen.Size, ColorFrom565(t.pen.Color))
}

func (t *TurtleEngine) drawStroke(from, to image.Point) {
	col := ColorFrom565(t.pen.Color)
	rasterizeLine(from, to, t.pen.Size, t.canvas.Bounds(), func(_, _ image.Point, cell image.Point) {
		t.canvas.Set(cell.X, cell.Y, col)
	})
}

// =============================================================================
// Motion
// =============================================================================

func (t *TurtleEngine) ArmSeek() { t.seekArmed = true }

func (t *TurtleEngine) SetForward(on bool) { t.forwardArmed = on }

// FaceTarget turns the turtle so forward motion heads for the target
func (t *TurtleEngine) FaceTarget() {
	if h, ok := headingTowards(t.target.Sub(t.position)); ok {
		t.heading = h
	}
}

// Plan computes, scans and clamps this tick's sub-target
func (t *TurtleEngine) Plan() {
	t.changes = nil
	t.hasReported = false
	t.lastReported = ColorChange{}
	t.rolledBack = false
	t.arrived = false

	if !t.Moving() {
		t.pending = false
		t.subTarget = t.position
		return
	}

	step := stepDistance(float64(t.speed), t.fps)
	sub, arrived := planMotion(t.position, t.target, t.heading, step, t.seekArmed, t.forwardArmed)

	t.changes = scanColorChanges(t.canvas, t.position, sub, t.pen.Size)
	if len(t.changes) > 0 {
		t.PopColorChange()
		t.raise(SignalColorChange)
	}

	sub, clamped := clampToCanvas(sub, t.canvas.Width(), t.canvas.Height())
	if clamped {
		t.raise(SignalHitEdge)
	}

	t.subTarget = sub
	t.arrived = arrived
	t.pending = true
}

// Commit applies the pending sub-target
func (t *TurtleEngine) Commit() {
	if !t.pending {
		return
	}
	t.pending = false

	sub, _ := clampToCanvas(t.subTarget, t.canvas.Width(), t.canvas.Height())
	from, to := t.position.Cell(), sub.Cell()
	if t.pen.Down && !t.rolledBack && from != to {
		t.drawStroke(from, to)
	}
	t.position = sub
	t.subTarget = sub

	if t.arrived {
		t.arrived = false
		t.seekArmed = false
		t.raise(SignalMoveDone)
	}
}

// Tick runs a whole motion tick with no controller window
func (t *TurtleEngine) Tick() {
	t.Plan()
	t.Commit()
}

// Rollback rewinds the pending move to just before the last reported change.
// Motion stays armed; the controller decides whether to carry on.
func (t *TurtleEngine) Rollback() {
	if t.hasReported {
		t.subTarget = t.lastReported.Before
	} else {
		t.subTarget = t.position
	}
	t.rolledBack = true
	t.arrived = false
}

// PopColorChange moves the next queued record into the last reported slot
// and returns how many remain. An empty queue leaves the slot untouched.
func (t *TurtleEngine) PopColorChange() int {
	if len(t.changes) == 0 {
		return 0
	}
	t.lastReported = t.changes[0]
	t.hasReported = true
	t.changes = t.changes[1:]
	return len(t.changes)
}

// =============================================================================
// Detection
// =============================================================================

func (t *TurtleEngine) DetectHere() uint16 {
	p := t.position.Cell()
	return t.canvas.GetPacked(p.X, p.Y)
}

func (t *TurtleEngine) DetectAhead() uint16 {
	ahead := t.position.Add(headingDirection(t.heading).Scale(DETECT_AHEAD_DISTANCE))
	if !ahead.IsFinite() {
		ahead = t.position
	}
	ahead, _ = clampToCanvas(ahead, t.canvas.Width(), t.canvas.Height())
	p := ahead.Cell()
	return t.canvas.GetPacked(p.X, p.Y)
}

// =============================================================================
// Register Interface
// =============================================================================

func (t *TurtleEngine) HandleRead(addr uint32) uint32 {
	switch addr {
	case TURTLE_X:
		return uint32(t.position.Cell().X)
	case TURTLE_Y:
		return uint32(t.position.Cell().Y)
	case TURTLE_ANGLE:
		return uint32(t.heading)
	case SET_X:
		return uint32(int32(math.Round(t.target.X)))
	case SET_Y:
		return uint32(int32(math.Round(t.target.Y)))
	case PEN_COLOR:
		return uint32(t.pen.Color)
	case PEN_SIZE:
		return uint32(t.pen.Size)
	case DETECT:
		return uint32(t.DetectHere())
	case DETECT_AHEAD:
		return uint32(t.DetectAhead())
	case NEXT_COLOR_CHANGE:
		return uint32(t.PopColorChange())
	case GET_COLOR_CHANGE:
		if !t.hasReported {
			return NO_COLOR_CHANGE
		}
		return uint32(t.lastReported.Color)
	case COLOR_CHANGE_COUNT:
		return uint32(t.QueuedChanges())
	case TURTLE_SPEED:
		return uint32(t.speed)
	case TURTLE_ID:
		return uint32(t.id)
	case TURTLE_RANDOM:
		return uint32(t.rng.Uint32() & 0xFFFF)
	}
	return 0
}

func (t *TurtleEngine) HandleWrite(addr uint32, value uint32) {
	switch addr {
	case TURTLE_ANGLE:
		t.SetHeading(float64(int32(value)))
	case SET_X:
		t.target.X = float64(int32(value))
	case SET_Y:
		t.target.Y = float64(int32(value))
	case PEN_DOWN:
		t.SetPenDown(true)
	case PEN_UP:
		t.SetPenDown(false)
	case PEN_COLOR:
		t.SetPenColor(uint16(value))
	case PEN_SIZE:
		t.SetPenSize(int(int32(value)))
	case GOTO_XY:
		t.ArmSeek()
	case FACE_XY:
		t.FaceTarget()
	case MOVE:
		t.SetForward(value != 0)
	case SET_ERASER:
		t.SetPenColor(COLOR565_WHITE)
	case STOP_MOVE:
		t.Rollback()
	case TURTLE_SPEED:
		t.SetSpeed(int(int32(value)))
	}
}
