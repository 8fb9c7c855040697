package main

import (
	"sync"
	"testing"
	"time"
)

func TestTerminalMMIO_WriteChar(t *testing.T) {
	tm := NewTerminalMMIO()
	tm.HandleWrite(TERM_OUT, 0x41) // 'A'
	if out := tm.DrainOutput(); out != "A" {
		t.Fatalf("expected output 'A', got %q", out)
	}
}

func TestTerminalMMIO_WriteUsesLowByte(t *testing.T) {
	tm := NewTerminalMMIO()
	tm.HandleWrite(TERM_OUT, 0x1234_0048)
	tm.HandleWrite(TERM_OUT, 0xFF69)
	if out := tm.DrainOutput(); out != "Hi" {
		t.Fatalf("expected output 'Hi', got %q", out)
	}
}

func TestTerminalMMIO_CharOutputCallback(t *testing.T) {
	tm := NewTerminalMMIO()
	got := byte(0)
	called := false
	tm.SetCharOutputCallback(func(b byte) {
		called = true
		got = b
	})

	tm.HandleWrite(TERM_OUT, 'A')

	if !called {
		t.Fatal("expected callback to be called")
	}
	if got != 'A' {
		t.Fatalf("expected callback byte 'A', got %q", got)
	}
	if out := tm.DrainOutput(); out != "" {
		t.Fatalf("expected no buffered output with callback set, got %q", out)
	}
}

func TestTerminalMMIO_CallbackNoDeadlock(t *testing.T) {
	tm := NewTerminalMMIO()
	done := make(chan struct{})
	tm.SetCharOutputCallback(func(_ byte) {
		// Re-enter terminal API while callback runs.
		tm.EnqueueRawKey('x')
		close(done)
	})

	tm.HandleWrite(TERM_OUT, 'C')

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not complete; possible deadlock")
	}
}

func TestTerminalMMIO_RawKey_Enqueue(t *testing.T) {
	tm := NewTerminalMMIO()
	tm.EnqueueRawKey('A')
	if got := tm.HandleRead(TERM_KEY_STATUS); got != 1 {
		t.Fatalf("expected key status 1, got %d", got)
	}
	if got := tm.HandleRead(TERM_KEY_IN); got != 'A' {
		t.Fatalf("expected key 'A', got 0x%X", got)
	}
	if got := tm.HandleRead(TERM_KEY_STATUS); got != 0 {
		t.Fatalf("expected key status cleared, got %d", got)
	}
}

func TestTerminalMMIO_RawKey_Sequence(t *testing.T) {
	tm := NewTerminalMMIO()
	for _, b := range []byte("ABCDE") {
		tm.EnqueueRawKey(b)
	}
	var got []byte
	for tm.HandleRead(TERM_KEY_STATUS)&1 != 0 {
		got = append(got, byte(tm.HandleRead(TERM_KEY_IN)))
	}
	if string(got) != "ABCDE" {
		t.Fatalf("expected ABCDE, got %q", string(got))
	}
}

func TestTerminalMMIO_RawKey_Empty(t *testing.T) {
	tm := NewTerminalMMIO()
	if got := tm.HandleRead(TERM_KEY_STATUS); got != 0 {
		t.Fatalf("expected empty status 0, got %d", got)
	}
	if got := tm.HandleRead(TERM_KEY_IN); got != 0 {
		t.Fatalf("expected empty key read 0, got %d", got)
	}
}

func TestTerminalMMIO_RawKey_BufferFull(t *testing.T) {
	tm := NewTerminalMMIO()
	for i := 0; i < 300; i++ {
		tm.EnqueueRawKey(byte(i))
	}
	count := 0
	for tm.HandleRead(TERM_KEY_STATUS)&1 != 0 {
		_ = tm.HandleRead(TERM_KEY_IN)
		count++
	}
	if count != 256 {
		t.Fatalf("expected capped 256 keys, got %d", count)
	}
}

func TestTerminalMMIO_BusIntegration(t *testing.T) {
	bus := NewMachineBus()
	tm := NewTerminalMMIO()
	bus.MapIO(TERM_REG_BASE, TERM_REG_END, tm.HandleRead, tm.HandleWrite)

	bus.Write32(TERM_OUT, 'Z')
	if out := tm.DrainOutput(); out != "Z" {
		t.Fatalf("expected 'Z' via bus, got %q", out)
	}

	tm.EnqueueRawKey('q')
	if got := bus.Read32(TERM_KEY_IN); got != 'q' {
		t.Fatalf("expected 'q' via bus, got 0x%X", got)
	}
}

func TestKeyBroadcaster_DeliversToEveryTerminal(t *testing.T) {
	var kb KeyBroadcaster
	a := NewTerminalMMIO()
	b := NewTerminalMMIO()
	kb.Add(a)
	kb.Add(b)

	kb.RouteHostKey('k')

	for i, tm := range []*TerminalMMIO{a, b} {
		if got := tm.HandleRead(TERM_KEY_IN); got != 'k' {
			t.Fatalf("terminal %d: expected 'k', got 0x%X", i, got)
		}
	}
}

func TestKeyBroadcaster_ConcurrentRouting(t *testing.T) {
	var kb KeyBroadcaster
	tm := NewTerminalMMIO()
	kb.Add(tm)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				kb.RouteHostKey('x')
			}
		}()
	}
	wg.Wait()

	count := 0
	for tm.HandleRead(TERM_KEY_STATUS)&1 != 0 {
		_ = tm.HandleRead(TERM_KEY_IN)
		count++
	}
	if count != 40 {
		t.Fatalf("expected 40 keys, got %d", count)
	}
}

func TestTranslateHostKey(t *testing.T) {
	tests := []struct {
		in, want byte
	}{
		{'\r', '\n'},
		{0x7F, 0x08},
		{'a', 'a'},
	}
	for _, tt := range tests {
		if got := translateHostKey(tt.in); got != tt.want {
			t.Fatalf("translateHostKey(0x%02X) = 0x%02X, expected 0x%02X", tt.in, got, tt.want)
		}
	}
}
