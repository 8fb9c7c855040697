//go:build !headless

// video_backend_ebiten.go - Ebiten window for TeenyTurtle

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
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

func init() {
	compiledFeatures = append(compiledFeatures, "video:ebiten")
}

type EbitenOutput struct {
	running     bool
	window      *ebiten.Image
	width       int
	height      int
	fullscreen  bool
	scale       int
	windowedW   int
	windowedH   int
	title       string
	frameBuffer []byte
	bufferMutex sync.RWMutex
	frameCount  uint64
	refreshRate int
	vsyncChan   chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	keyHandler  func(byte)

	statusProvider func() []TurtleStatus
	showStatusBar  bool

	clipboardOnce sync.Once
	clipboardOK   bool
}

func NewEbitenOutput() (VideoOutput, error) {
	return &EbitenOutput{
		width:         DEFAULT_CANVAS_WIDTH,
		height:        DEFAULT_CANVAS_HEIGHT,
		scale:         1,
		windowedW:     DEFAULT_CANVAS_WIDTH,
		windowedH:     DEFAULT_CANVAS_HEIGHT,
		title:         "TeenyTurtle",
		frameBuffer:   make([]byte, DEFAULT_CANVAS_WIDTH*DEFAULT_CANVAS_HEIGHT*4),
		refreshRate:   DEFAULT_FPS,
		vsyncChan:     make(chan struct{}, 1),
		done:          make(chan struct{}),
		showStatusBar: true,
	}, nil
}

func (eo *EbitenOutput) applyWindowSettings() {
	ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
	ebiten.SetWindowTitle(eo.title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	ebiten.SetTPS(eo.refreshRate)
	if eo.fullscreen {
		ebiten.SetFullscreen(true)
	}
}

// Start runs ebiten in its own goroutine and blocks until the first update
func (eo *EbitenOutput) Start() error {
	if eo.running {
		return nil
	}
	eo.running = true
	eo.applyWindowSettings()

	go func() {
		defer func() {
			eo.running = false
			eo.closeDone()
		}()
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()

	select {
	case <-eo.vsyncChan:
	case <-eo.done:
		return &VideoError{Operation: "start", Details: "window closed before the first frame"}
	}
	return nil
}

// RunOnMain hands the calling goroutine to ebiten and runs work beside it.
// It returns once both the window loop and work have finished.
func (eo *EbitenOutput) RunOnMain(work func()) error {
	eo.running = true
	eo.applyWindowSettings()
	workDone := make(chan struct{})
	go func() {
		defer close(workDone)
		work()
	}()
	err := ebiten.RunGame(eo)
	eo.running = false
	eo.closeDone()
	<-workDone
	if err != nil {
		return &VideoError{Operation: "run", Details: "ebiten", Err: err}
	}
	return nil
}

func (eo *EbitenOutput) closeDone() {
	eo.closeOnce.Do(func() { close(eo.done) })
}

func (eo *EbitenOutput) Stop() error {
	eo.running = false
	return nil
}

func (eo *EbitenOutput) Close() error {
	return eo.Stop()
}

func (eo *EbitenOutput) Done() <-chan struct{} {
	return eo.done
}

func (eo *EbitenOutput) UpdateFrame(data []byte) error {
	eo.bufferMutex.Lock()
	copy(eo.frameBuffer, data)
	eo.bufferMutex.Unlock()
	return nil
}

func (eo *EbitenOutput) SetDisplayConfig(config DisplayConfig) error {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()

	width := config.Width
	height := config.Height
	if width <= 0 {
		width = DEFAULT_CANVAS_WIDTH
	}
	if height <= 0 {
		height = DEFAULT_CANVAS_HEIGHT
	}
	eo.width = width
	eo.height = height
	eo.scale = ClampScale(config.Scale)
	if config.RefreshRate > 0 {
		eo.refreshRate = config.RefreshRate
	}
	if config.Title != "" {
		eo.title = config.Title
	}
	newSize := eo.width * eo.height * 4
	if len(eo.frameBuffer) != newSize {
		eo.frameBuffer = make([]byte, newSize)
	}

	eo.windowedW = eo.width * eo.scale
	eo.windowedH = eo.height * eo.scale
	eo.fullscreen = config.Fullscreen
	if eo.window != nil {
		eo.window.Dispose()
		eo.window = nil
	}
	return nil
}

func (eo *EbitenOutput) GetDisplayConfig() DisplayConfig {
	eo.bufferMutex.RLock()
	defer eo.bufferMutex.RUnlock()
	return DisplayConfig{
		Width:       eo.width,
		Height:      eo.height,
		Scale:       eo.scale,
		RefreshRate: eo.refreshRate,
		VSync:       true,
		Fullscreen:  eo.fullscreen,
		Title:       eo.title,
	}
}

// WaitForVSync blocks until the next ebiten tick or window close
func (eo *EbitenOutput) WaitForVSync() error {
	select {
	case <-eo.vsyncChan:
	case <-eo.done:
	}
	return nil
}

func (eo *EbitenOutput) GetFrameCount() uint64 {
	return eo.frameCount
}

func (eo *EbitenOutput) IsStarted() bool {
	return eo.running
}

func (eo *EbitenOutput) SetKeyHandler(fn func(byte)) {
	eo.bufferMutex.Lock()
	eo.keyHandler = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) SetStatusProvider(fn func() []TurtleStatus) {
	eo.bufferMutex.Lock()
	eo.statusProvider = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) Update() error {
	if ebiten.IsWindowBeingClosed() || !eo.running {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		eo.bufferMutex.Lock()
		eo.fullscreen = !eo.fullscreen
		ebiten.SetFullscreen(eo.fullscreen)
		if !eo.fullscreen {
			ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
		}
		eo.bufferMutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		eo.bufferMutex.Lock()
		eo.showStatusBar = !eo.showStatusBar
		eo.bufferMutex.Unlock()
	}
	eo.handleKeyboardInput()

	eo.frameCount++
	select {
	case eo.vsyncChan <- struct{}{}:
	default:
	}
	return nil
}

func (eo *EbitenOutput) emitByte(b byte) {
	eo.bufferMutex.RLock()
	handler := eo.keyHandler
	eo.bufferMutex.RUnlock()
	if handler != nil {
		handler(b)
	}
}

func (eo *EbitenOutput) handleKeyboardInput() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)

	// Ctrl+Shift+C copies the current frame as PNG
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyC) {
		eo.copyFrameToClipboard()
		return
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if b, ok := runeToInputByte(r); ok {
			eo.emitByte(b)
		}
	}

	specialKeys := []ebiten.Key{
		ebiten.KeyEnter,
		ebiten.KeyNumpadEnter,
		ebiten.KeyBackspace,
		ebiten.KeyTab,
		ebiten.KeyArrowUp,
		ebiten.KeyArrowDown,
		ebiten.KeyArrowRight,
		ebiten.KeyArrowLeft,
	}
	for _, key := range specialKeys {
		if inpututil.IsKeyJustPressed(key) {
			if b, ok := translateSpecialKey(key); ok {
				eo.emitByte(b)
			}
		}
	}
}

func runeToInputByte(r rune) (byte, bool) {
	if r <= 0 || r > 0x7F {
		return 0, false
	}
	return byte(r), true
}

func translateSpecialKey(key ebiten.Key) (byte, bool) {
	switch key {
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		return '\n', true
	case ebiten.KeyBackspace:
		return '\b', true
	case ebiten.KeyTab:
		return '\t', true
	case ebiten.KeyArrowUp:
		return KEY_CODE_UP, true
	case ebiten.KeyArrowDown:
		return KEY_CODE_DOWN, true
	case ebiten.KeyArrowRight:
		return KEY_CODE_RIGHT, true
	case ebiten.KeyArrowLeft:
		return KEY_CODE_LEFT, true
	}
	return 0, false
}

// encodeFramePNG wraps an RGBA buffer in an image and encodes it
func encodeFramePNG(pix []byte, width, height int) ([]byte, error) {
	img := &image.RGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (eo *EbitenOutput) copyFrameToClipboard() {
	eo.clipboardOnce.Do(func() {
		eo.clipboardOK = clipboard.Init() == nil
	})
	if !eo.clipboardOK {
		fmt.Println("video: clipboard unavailable")
		return
	}

	eo.bufferMutex.RLock()
	pix := make([]byte, len(eo.frameBuffer))
	copy(pix, eo.frameBuffer)
	width, height := eo.width, eo.height
	eo.bufferMutex.RUnlock()

	data, err := encodeFramePNG(pix, width, height)
	if err != nil {
		fmt.Printf("video: %v\n", &VideoError{Operation: "clipboard copy", Details: "png encode", Err: err})
		return
	}
	clipboard.Write(clipboard.FmtImage, data)
	fmt.Println("video: frame copied to clipboard")
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	if eo.window == nil {
		eo.window = ebiten.NewImage(eo.width, eo.height)
	}

	eo.bufferMutex.RLock()
	eo.window.WritePixels(eo.frameBuffer)
	showStatusBar := eo.showStatusBar
	provider := eo.statusProvider
	eo.bufferMutex.RUnlock()
	screen.DrawImage(eo.window, nil)
	if showStatusBar && provider != nil {
		eo.drawTurtleStatusBar(screen, provider())
	}
}

func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	return eo.width, eo.height
}

type statusToken struct {
	name    string
	enabled bool
}

func drawStatusLine(screen *ebiten.Image, x, baselineY int, label string, tokens []statusToken) {
	face := basicfont.Face7x13
	labelColor := color.RGBA{190, 190, 190, 255}
	offColor := color.RGBA{120, 120, 120, 255}
	onColor := color.RGBA{0, 220, 90, 255}

	text.Draw(screen, label, face, x, baselineY, labelColor)
	cursorX := x + text.BoundString(face, label).Dx() + 6

	for _, token := range tokens {
		c := offColor
		if token.enabled {
			c = onColor
		}
		text.Draw(screen, token.name, face, cursorX, baselineY, c)
		cursorX += text.BoundString(face, token.name).Dx() + 8
	}
}

// turtleStatusTokens renders one turtle as label and highlighted flags
func turtleStatusTokens(s TurtleStatus) (string, []statusToken) {
	label := fmt.Sprintf("T%-2d %4.0f,%-4.0f %3.0f°", s.ID, s.Position.X, s.Position.Y, s.Heading)
	return label, []statusToken{
		{name: "PEN", enabled: s.Pen.Down},
		{name: "|", enabled: false},
		{name: "MOVE", enabled: s.Moving},
		{name: "|", enabled: false},
		{name: fmt.Sprintf("%04X", s.Pen.Color), enabled: s.Pen.Down},
	}
}

func (eo *EbitenOutput) drawTurtleStatusBar(screen *ebiten.Image, turtles []TurtleStatus) {
	const lineHeight = 13
	shown := min(len(turtles), 4)
	barHeight := lineHeight*(shown+1) + 5
	if shown == 0 || barHeight >= eo.height {
		return
	}
	y := eo.height - barHeight
	ebitenutil.DrawRect(screen, 0, float64(y), float64(eo.width), float64(barHeight), color.RGBA{0, 0, 0, 180})

	for i := 0; i < shown; i++ {
		label, tokens := turtleStatusTokens(turtles[i])
		drawStatusLine(screen, 6, y+lineHeight*(i+1), label, tokens)
	}

	legendColor := color.RGBA{160, 160, 160, 255}
	legend := "Esc Quit  F11 Fullscreen  F12 Status  Ctrl+Shift+C Copy"
	if len(turtles) > shown {
		legend = fmt.Sprintf("+%d more  %s", len(turtles)-shown, legend)
	}
	text.Draw(screen, legend, basicfont.Face7x13, 6, y+lineHeight*(shown+1), legendColor)
}
