//go:build !headless

package main

import "testing"

func TestEbitenOutput_OptionalInterfaces(t *testing.T) {
	eo := &EbitenOutput{}
	if _, ok := any(eo).(KeyboardInput); !ok {
		t.Fatal("expected EbitenOutput to implement KeyboardInput")
	}
	if _, ok := any(eo).(StatusDisplay); !ok {
		t.Fatal("expected EbitenOutput to implement StatusDisplay")
	}
	if _, ok := any(eo).(ClosableOutput); !ok {
		t.Fatal("expected EbitenOutput to implement ClosableOutput")
	}
	if _, ok := any(eo).(MainLoopOutput); !ok {
		t.Fatal("expected EbitenOutput to implement MainLoopOutput")
	}
}

func TestEbitenOutput_SetDisplayConfig(t *testing.T) {
	out, err := NewEbitenOutput()
	if err != nil {
		t.Fatalf("NewEbitenOutput returned error: %v", err)
	}
	if err := out.SetDisplayConfig(DisplayConfig{Width: 320, Height: 200, Scale: 9, RefreshRate: 30}); err != nil {
		t.Fatalf("SetDisplayConfig returned error: %v", err)
	}
	got := out.GetDisplayConfig()
	if got.Width != 320 || got.Height != 200 {
		t.Fatalf("expected 320x200, got %dx%d", got.Width, got.Height)
	}
	if got.Scale != MAX_DISPLAY_SCALE {
		t.Fatalf("expected scale clamped to %d, got %d", MAX_DISPLAY_SCALE, got.Scale)
	}
	if got.RefreshRate != 30 {
		t.Fatalf("expected refresh 30, got %d", got.RefreshRate)
	}
}
