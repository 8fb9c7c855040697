// terminal_io.go - Terminal registers for turtle programs

package main

import (
	"sync"
)

// Terminal registers, mapped on every turtle bus
const (
	TERM_REG_BASE   = 0xF000
	TERM_OUT        = 0xF000 // Write: low byte to the host terminal
	TERM_KEY_IN     = 0xF004 // Read: next key byte (dequeues), 0 if none
	TERM_KEY_STATUS = 0xF008 // Read: bit 0 set while a key is waiting
	TERM_REG_END    = 0xF00B
)

// Arrow keys arrive as single control codes so one KEY_IN read sees one key
const (
	KEY_CODE_UP    = 0x11
	KEY_CODE_DOWN  = 0x12
	KEY_CODE_RIGHT = 0x13
	KEY_CODE_LEFT  = 0x14
)

// TerminalMMIO is a per-turtle terminal device. Host adapters push keys from
// their own goroutines; the turtle program drains them from the machine loop.
type TerminalMMIO struct {
	mu sync.Mutex

	// Raw key ring buffer
	rawKeyBuf  [256]byte
	rawKeyHead int
	rawKeyTail int
	rawKeyLen  int

	// Output buffer (drained by tests or the machine)
	outputBuf []byte

	// onCharOutput, when set, receives TERM_OUT bytes immediately.
	// Invoked outside mu.
	onCharOutput func(byte)
}

func NewTerminalMMIO() *TerminalMMIO {
	return &TerminalMMIO{
		outputBuf: make([]byte, 0, 256),
	}
}

// SetCharOutputCallback routes TERM_OUT bytes to fn instead of the buffer
func (tm *TerminalMMIO) SetCharOutputCallback(fn func(byte)) {
	tm.mu.Lock()
	tm.onCharOutput = fn
	tm.mu.Unlock()
}

func (tm *TerminalMMIO) HandleRead(addr uint32) uint32 {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	switch addr {
	case TERM_KEY_STATUS:
		if tm.rawKeyLen > 0 {
			return 1
		}
		return 0
	case TERM_KEY_IN:
		if tm.rawKeyLen == 0 {
			return 0
		}
		b := tm.rawKeyBuf[tm.rawKeyHead]
		tm.rawKeyHead = (tm.rawKeyHead + 1) % len(tm.rawKeyBuf)
		tm.rawKeyLen--
		return uint32(b)
	}
	return 0
}

func (tm *TerminalMMIO) HandleWrite(addr uint32, value uint32) {
	if addr != TERM_OUT {
		return
	}
	ch := byte(value & 0xFF)

	tm.mu.Lock()
	charFn := tm.onCharOutput
	if charFn == nil {
		tm.outputBuf = append(tm.outputBuf, ch)
	}
	tm.mu.Unlock()

	if charFn != nil {
		charFn(ch)
	}
}

// EnqueueRawKey queues a key byte; a full buffer drops it
func (tm *TerminalMMIO) EnqueueRawKey(b byte) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.rawKeyLen >= len(tm.rawKeyBuf) {
		return
	}
	tm.rawKeyBuf[tm.rawKeyTail] = b
	tm.rawKeyTail = (tm.rawKeyTail + 1) % len(tm.rawKeyBuf)
	tm.rawKeyLen++
}

// DrainOutput returns and clears the accumulated output buffer
func (tm *TerminalMMIO) DrainOutput() string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	s := string(tm.outputBuf)
	tm.outputBuf = tm.outputBuf[:0]
	return s
}

// KeyBroadcaster fans host key presses out to every turtle terminal
type KeyBroadcaster struct {
	mu        sync.Mutex
	terminals []*TerminalMMIO
}

func (kb *KeyBroadcaster) Add(tm *TerminalMMIO) {
	kb.mu.Lock()
	kb.terminals = append(kb.terminals, tm)
	kb.mu.Unlock()
}

func (kb *KeyBroadcaster) RouteHostKey(b byte) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	for _, tm := range kb.terminals {
		tm.EnqueueRawKey(b)
	}
}

// translateHostKey maps raw-mode terminal bytes to the codes programs see
func translateHostKey(b byte) byte {
	switch b {
	case '\r':
		// Raw mode sends CR for Enter
		return '\n'
	case 0x7F:
		// Modern terminals send DEL for Backspace
		return 0x08
	}
	return b
}
