package main

import (
	"testing"
	"time"
)

func TestHeadlessOutput_SetDisplayConfig_StoresFullscreen(t *testing.T) {
	out := NewHeadlessOutput()
	cfg := DisplayConfig{
		Width:      640,
		Height:     480,
		Scale:      2,
		Fullscreen: true,
	}
	if err := out.SetDisplayConfig(cfg); err != nil {
		t.Fatalf("SetDisplayConfig returned error: %v", err)
	}
	got := out.GetDisplayConfig()
	if !got.Fullscreen {
		t.Fatal("expected Fullscreen=true")
	}
	if got.RefreshRate != DEFAULT_FPS {
		t.Fatalf("expected default refresh %d, got %d", DEFAULT_FPS, got.RefreshRate)
	}
}

func TestHeadlessOutput_KeepsLastFrame(t *testing.T) {
	out := NewHeadlessOutput()
	frame := []byte{1, 2, 3, 4}
	if err := out.UpdateFrame(frame); err != nil {
		t.Fatalf("UpdateFrame returned error: %v", err)
	}
	frame[0] = 9

	got := out.LastFrame()
	if len(got) != 4 || got[0] != 1 {
		t.Fatalf("expected copied frame [1 2 3 4], got %v", got)
	}
	if out.GetFrameCount() != 1 {
		t.Fatalf("expected frame count 1, got %d", out.GetFrameCount())
	}
}

func TestHeadlessOutput_UnpacedVSyncReturnsImmediately(t *testing.T) {
	out := NewHeadlessOutput()
	_ = out.SetDisplayConfig(DisplayConfig{RefreshRate: 1})
	_ = out.Start()

	start := time.Now()
	for i := 0; i < 5; i++ {
		_ = out.WaitForVSync()
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("expected unpaced vsync, took %v", elapsed)
	}
}

func TestHeadlessOutput_PacedVSync(t *testing.T) {
	out := NewHeadlessOutput()
	_ = out.SetDisplayConfig(DisplayConfig{RefreshRate: 100, VSync: true})
	_ = out.Start()

	start := time.Now()
	for i := 0; i < 5; i++ {
		_ = out.WaitForVSync()
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("expected ~50ms of pacing, took %v", elapsed)
	}
}

func TestNewVideoOutput_UnknownBackend(t *testing.T) {
	if _, err := NewVideoOutput(99); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
