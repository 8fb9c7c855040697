// config.go - Command line configuration for TeenyTurtle

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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	PROGRAM_KIND_IE32 = iota
	PROGRAM_KIND_LUA
)

const usageText = "Usage: ./turtle [flags] <program.iex|script.lua> [num_turtles] [canvas.png|bmp]"

type TurtleConfig struct {
	Program     string
	ProgramKind int
	Turtles     int
	CanvasImage string
	Width       int
	Height      int
	FPS         int
	Speed       int
	Frames      uint64 // 0 runs until every core halts or the window closes
	OutputPNG   string
	Headless    bool
	Sound       bool
	HostKeys    bool
	Sprite      string
	Scale       int
	Verbose     bool
	ShowVersion bool
}

func DefaultConfig() TurtleConfig {
	return TurtleConfig{
		Turtles: DEFAULT_TURTLE_COUNT,
		Width:   DEFAULT_CANVAS_WIDTH,
		Height:  DEFAULT_CANVAS_HEIGHT,
		FPS:     DEFAULT_FPS,
		Speed:   DEFAULT_TURTLE_SPEED,
		Scale:   1,
	}
}

// ParseConfig reads flags and positionals. Usage goes to usageOut on -h or a
// bad flag; flag.ErrHelp is returned as-is.
func ParseConfig(args []string, usageOut io.Writer) (TurtleConfig, error) {
	if usageOut == nil {
		usageOut = io.Discard
	}
	cfg := DefaultConfig()
	var canvasSize string
	var turtles int

	flagSet := flag.NewFlagSet("turtle", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVar(&turtles, "turtles", 0, "Number of turtles (overrides the positional count)")
	flagSet.StringVar(&canvasSize, "canvas", "", "Blank canvas size WxH when no image is given")
	flagSet.IntVar(&cfg.FPS, "fps", cfg.FPS, "Frames per second")
	flagSet.IntVar(&cfg.Speed, "speed", cfg.Speed, "Initial turtle speed in units per 60Hz tick")
	flagSet.Uint64Var(&cfg.Frames, "frames", 0, "Stop after this many frames (0 = no limit)")
	flagSet.StringVar(&cfg.OutputPNG, "out", "", "Save the final canvas as PNG")
	flagSet.BoolVar(&cfg.Headless, "headless", false, "Run without a window")
	flagSet.BoolVar(&cfg.Sound, "sound", false, "Beep on turtle signals")
	flagSet.BoolVar(&cfg.HostKeys, "keys", false, "Feed terminal keystrokes to KEY_IN")
	flagSet.StringVar(&cfg.Sprite, "sprite", "", "Turtle sprite image (PNG or BMP, pointing up)")
	flagSet.IntVar(&cfg.Scale, "scale", cfg.Scale, "Window scale factor (1-4)")
	flagSet.BoolVar(&cfg.Verbose, "v", false, "Trace signals and core events")
	flagSet.BoolVar(&cfg.ShowVersion, "version", false, "Print version and compiled features")

	flagSet.Usage = func() {
		flagSet.SetOutput(usageOut)
		fmt.Fprintln(usageOut, usageText)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.ShowVersion {
		return cfg, nil
	}

	positional := flagSet.Args()
	if len(positional) == 0 {
		return cfg, fmt.Errorf("missing program file\n%s", usageText)
	}
	if len(positional) > 3 {
		return cfg, fmt.Errorf("too many arguments\n%s", usageText)
	}
	cfg.Program = positional[0]
	if len(positional) > 1 {
		n, err := strconv.Atoi(positional[1])
		if err != nil {
			return cfg, fmt.Errorf("invalid turtle count %q: %w", positional[1], err)
		}
		cfg.Turtles = n
	}
	if len(positional) > 2 {
		cfg.CanvasImage = positional[2]
	}
	if turtles != 0 {
		cfg.Turtles = turtles
	}
	if canvasSize != "" {
		w, h, err := parseCanvasSize(canvasSize)
		if err != nil {
			return cfg, fmt.Errorf("invalid -canvas: %w", err)
		}
		cfg.Width, cfg.Height = w, h
	}

	switch strings.ToLower(filepath.Ext(cfg.Program)) {
	case ".lua":
		cfg.ProgramKind = PROGRAM_KIND_LUA
	default:
		cfg.ProgramKind = PROGRAM_KIND_IE32
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges and that every named input file exists
func (c TurtleConfig) Validate() error {
	if c.Turtles < 1 {
		return fmt.Errorf("turtle count must be at least 1, got %d", c.Turtles)
	}
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.FPS < 1 || c.FPS > CPU_TICKS_PER_SECOND {
		return fmt.Errorf("fps out of range: %d", c.FPS)
	}
	if c.Speed < 1 || c.Speed > MAX_TURTLE_SPEED {
		return fmt.Errorf("speed must be 1-%d, got %d", MAX_TURTLE_SPEED, c.Speed)
	}
	if c.Scale < MIN_DISPLAY_SCALE || c.Scale > MAX_DISPLAY_SCALE {
		return fmt.Errorf("scale must be %d-%d, got %d", MIN_DISPLAY_SCALE, MAX_DISPLAY_SCALE, c.Scale)
	}
	for _, path := range []string{c.Program, c.CanvasImage, c.Sprite} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return &TurtleError{Operation: "config", Details: path, Err: err}
		}
	}
	return nil
}

func parseCanvasSize(value string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(value), "x")
	if !ok {
		return 0, 0, fmt.Errorf("expected WxH, got %q", value)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, err
	}
	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("value out of range: %dx%d", w, h)
	}
	return w, h, nil
}
