// turtle_constants.go - Turtle register addresses and constants for TeenyTurtle

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
turtle_constants.go - Turtle Graphics Device Constants

This file defines the register map, interrupt lines and default geometry of
the turtle device. Every turtle instance owns a private 64KB bus; the
registers below sit at the same addresses on each of them.

Register Map (32-bit accesses, values are little-endian words):

  0xD000 TURTLE_X           R   cell X of the turtle position
  0xD001 TURTLE_Y           R   cell Y of the turtle position
  0xD002 TURTLE_ANGLE       RW  heading in degrees, writes normalise to [0,360)
  0xD003 SET_X              RW  target X (signed)
  0xD004 SET_Y              RW  target Y (signed)
  0xD010 PEN_DOWN           W   put the pen on the canvas (stamps a dot)
  0xD011 PEN_UP             W   lift the pen
  0xD012 PEN_COLOR          RW  RGB565 pen colour (re-stamps when down)
  0xD013 PEN_SIZE           RW  pen radius, capped at MAX_PEN_SIZE (re-stamps when down)
  0xE000 GOTO_XY            W   seek the target position
  0xE001 FACE_XY            W   turn to face the target position
  0xE002 MOVE               W   nonzero arms forward motion, zero disarms it
  0xE003 DETECT             R   RGB565 colour under the turtle
  0xE004 SET_ERASER         W   pen colour = white
  0xE005 DETECT_AHEAD       R   RGB565 colour DETECT_AHEAD_DISTANCE ahead
  0xE006 STOP_MOVE          W   roll back the pending move
  0xE007 NEXT_COLOR_CHANGE  R   pop the next colour change, returns remaining
  0xE008 GET_COLOR_CHANGE   R   colour of the last reported change
  0xE009 COLOR_CHANGE_COUNT R   colour changes still queued
  0xE00A TURTLE_SPEED       RW  units per 60Hz tick, capped at MAX_TURTLE_SPEED
  0xE00B TURTLE_ID          R   instance index
  0xE00C TURTLE_RANDOM      R   16-bit pseudo random value

Interrupt Lines (vector address = VECTOR_TABLE + 4*line):
  0: move done    1: hit edge    2: colour change
*/

package main

// =============================================================================
// Turtle Register Addresses
// =============================================================================

const (
	TURTLE_REG_BASE = 0xD000

	TURTLE_X     = 0xD000
	TURTLE_Y     = 0xD001
	TURTLE_ANGLE = 0xD002
	SET_X        = 0xD003
	SET_Y        = 0xD004

	PEN_DOWN  = 0xD010
	PEN_UP    = 0xD011
	PEN_COLOR = 0xD012
	PEN_SIZE  = 0xD013

	GOTO_XY            = 0xE000
	FACE_XY            = 0xE001
	MOVE               = 0xE002
	DETECT             = 0xE003
	SET_ERASER         = 0xE004
	DETECT_AHEAD       = 0xE005
	STOP_MOVE          = 0xE006
	NEXT_COLOR_CHANGE  = 0xE007
	GET_COLOR_CHANGE   = 0xE008
	COLOR_CHANGE_COUNT = 0xE009
	TURTLE_SPEED       = 0xE00A
	TURTLE_ID          = 0xE00B
	TURTLE_RANDOM      = 0xE00C

	TURTLE_REG_END = 0xE0FF
)

// turtleRegisterNames exposes the register map to script controllers
var turtleRegisterNames = map[string]uint32{
	"TURTLE_X":           TURTLE_X,
	"TURTLE_Y":           TURTLE_Y,
	"TURTLE_ANGLE":       TURTLE_ANGLE,
	"SET_X":              SET_X,
	"SET_Y":              SET_Y,
	"PEN_DOWN":           PEN_DOWN,
	"PEN_UP":             PEN_UP,
	"PEN_COLOR":          PEN_COLOR,
	"PEN_SIZE":           PEN_SIZE,
	"GOTO_XY":            GOTO_XY,
	"FACE_XY":            FACE_XY,
	"MOVE":               MOVE,
	"DETECT":             DETECT,
	"SET_ERASER":         SET_ERASER,
	"DETECT_AHEAD":       DETECT_AHEAD,
	"STOP_MOVE":          STOP_MOVE,
	"NEXT_COLOR_CHANGE":  NEXT_COLOR_CHANGE,
	"GET_COLOR_CHANGE":   GET_COLOR_CHANGE,
	"COLOR_CHANGE_COUNT": COLOR_CHANGE_COUNT,
	"TURTLE_SPEED":       TURTLE_SPEED,
	"TURTLE_ID":          TURTLE_ID,
	"TURTLE_RANDOM":      TURTLE_RANDOM,
	"TERM_OUT":           TERM_OUT,
	"TERM_KEY_IN":        TERM_KEY_IN,
	"TERM_KEY_STATUS":    TERM_KEY_STATUS,
	"NO_COLOR_CHANGE":    NO_COLOR_CHANGE,
}

// GET_COLOR_CHANGE value when nothing has been reported this tick.
// Sits above the 16-bit colour range so black (0x0000) stays distinguishable.
const NO_COLOR_CHANGE = 0x10000

// =============================================================================
// Interrupt Lines
// =============================================================================

const (
	TURTLE_INT_MOVE_DONE    = 0
	TURTLE_INT_HIT_EDGE     = 1
	TURTLE_INT_COLOR_CHANGE = 2

	TURTLE_INT_COUNT = 3
)

// =============================================================================
// Defaults
// =============================================================================

const (
	DEFAULT_CANVAS_WIDTH  = 640
	DEFAULT_CANVAS_HEIGHT = 500

	DEFAULT_TURTLE_COUNT = 1
	DEFAULT_PEN_SIZE     = 5
	DEFAULT_TURTLE_SPEED = 6
	DEFAULT_FPS          = 60

	// Speeds are expressed per tick at this rate and rescaled to the real one
	SPEED_REFERENCE_FPS = 60

	DETECT_AHEAD_DISTANCE = 15

	// Larger register writes are capped to these
	MAX_TURTLE_SPEED = 1024
	MAX_PEN_SIZE     = 64

	// Forward motion points along heading + HEADING_FORWARD_OFFSET
	HEADING_FORWARD_OFFSET = 270.0

	// Processor ticks per second, split evenly across frames
	CPU_TICKS_PER_SECOND = 1_000_000

	TURTLE_SPRITE_SIZE = 16
)

// White, used for the eraser and blank canvases.
const COLOR565_WHITE = 0xFFFF
