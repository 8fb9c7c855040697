package main

import (
	"sync"
	"sync/atomic"
	"time"
)

// HeadlessVideoOutput keeps the latest frame in memory. With VSync set it
// paces WaitForVSync to the refresh rate, otherwise it returns immediately.
type HeadlessVideoOutput struct {
	mu         sync.Mutex
	started    bool
	config     DisplayConfig
	frame      []byte
	frameCount uint64
	nextVSync  time.Time
}

func NewHeadlessOutput() *HeadlessVideoOutput {
	return &HeadlessVideoOutput{config: DisplayConfig{RefreshRate: DEFAULT_FPS, Scale: 1}}
}

func (h *HeadlessVideoOutput) Start() error {
	h.mu.Lock()
	h.started = true
	h.nextVSync = time.Now()
	h.mu.Unlock()
	return nil
}

func (h *HeadlessVideoOutput) Stop() error {
	h.mu.Lock()
	h.started = false
	h.mu.Unlock()
	return nil
}

func (h *HeadlessVideoOutput) Close() error {
	return h.Stop()
}

func (h *HeadlessVideoOutput) IsStarted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

func (h *HeadlessVideoOutput) SetDisplayConfig(config DisplayConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	config.Scale = ClampScale(config.Scale)
	if config.RefreshRate <= 0 {
		config.RefreshRate = DEFAULT_FPS
	}
	h.config = config
	return nil
}

func (h *HeadlessVideoOutput) GetDisplayConfig() DisplayConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config
}

func (h *HeadlessVideoOutput) UpdateFrame(buffer []byte) error {
	h.mu.Lock()
	if len(h.frame) != len(buffer) {
		h.frame = make([]byte, len(buffer))
	}
	copy(h.frame, buffer)
	h.mu.Unlock()
	atomic.AddUint64(&h.frameCount, 1)
	return nil
}

// LastFrame returns a copy of the most recent frame
func (h *HeadlessVideoOutput) LastFrame() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]byte, len(h.frame))
	copy(out, h.frame)
	return out
}

func (h *HeadlessVideoOutput) WaitForVSync() error {
	h.mu.Lock()
	if !h.config.VSync {
		h.mu.Unlock()
		return nil
	}
	h.nextVSync = h.nextVSync.Add(time.Second / time.Duration(h.config.RefreshRate))
	wait := time.Until(h.nextVSync)
	if wait < 0 {
		// Fell behind; resynchronise instead of bursting
		h.nextVSync = time.Now()
	}
	h.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
	return nil
}

func (h *HeadlessVideoOutput) GetFrameCount() uint64 {
	return atomic.LoadUint64(&h.frameCount)
}
