// machine_bus.go - Per-turtle memory bus for TeenyTurtle

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
machine_bus.go - Machine Bus for TeenyTurtle

Every turtle gets its own bus: 64KB of little-endian memory shared by the
program image, its stack and the memory-mapped turtle and terminal devices.

Core Features:

    64KB of main memory allocated as a contiguous block.
    Memory-mapped I/O via a page-keyed region table (PAGE_SIZE 0x100).
    Little-endian 32-bit reads and writes.
    Mappings are sealed once the machine starts running.

Memory Map:

    0x0000 - 0x000B   Interrupt vectors, one word per signal line
    0x1000 - 0xAFFF   Program image and data
    0xB000 - 0xBFFF   Stack (grows down from STACK_START)
    0xD000 - 0xE0FF   Turtle registers (turtle_constants.go)
    0xF000 - 0xF00B   Terminal registers (terminal_io.go)

A bus is only touched from the machine goroutine, so unlike a shared system
bus it carries no locks.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

const (
	TURTLE_MEMORY_SIZE = 64 * 1024
	PAGE_SIZE          = 0x100
	PAGE_MASK          = 0xFFF00
)

// ------------------------------------------------------------------------------
// Memory Map Boundaries
// ------------------------------------------------------------------------------
const (
	VECTOR_TABLE    = 0x0000
	PROG_START      = 0x1000
	STACK_BOTTOM    = 0xB000
	STACK_START     = 0xC000
	IO_REGION_START = 0xD000
)

type Bus32 interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Reset()
	GetMemory() []byte
}

type MachineBus struct {
	memory  []byte
	mapping map[uint32][]IORegion

	// Indexed by (addr >> 8), true if the page has I/O mappings
	ioPageBitmap []bool

	sealed atomic.Bool
}

type IORegion struct {
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint32
	onWrite func(addr uint32, value uint32)
}

func NewMachineBus() *MachineBus {
	return &MachineBus{
		memory:       make([]byte, TURTLE_MEMORY_SIZE),
		mapping:      make(map[uint32][]IORegion),
		ioPageBitmap: make([]bool, TURTLE_MEMORY_SIZE/PAGE_SIZE),
	}
}

// GetMemory returns the backing slice so the CPU can fetch without the bus
func (bus *MachineBus) GetMemory() []byte {
	return bus.memory
}

// SealMappings prevents further MapIO calls
func (bus *MachineBus) SealMappings() {
	bus.sealed.CompareAndSwap(false, true)
}

func (bus *MachineBus) MapIO(start, end uint32, onRead func(addr uint32) uint32, onWrite func(addr uint32, value uint32)) {
	if bus.sealed.Load() {
		panic(fmt.Sprintf("MapIO called after execution started (mapping range $%04X-$%04X)", start, end))
	}
	region := IORegion{
		start:   start,
		end:     end,
		onRead:  onRead,
		onWrite: onWrite,
	}

	firstPage := start & PAGE_MASK
	lastPage := end & PAGE_MASK
	for page := firstPage; page <= lastPage; page += PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
		pageIdx := page >> 8
		if pageIdx < uint32(len(bus.ioPageBitmap)) {
			bus.ioPageBitmap[pageIdx] = true
		}
	}
}

// LoadImage copies a program image into memory at addr
func (bus *MachineBus) LoadImage(addr uint32, image []byte) error {
	if uint64(addr)+uint64(len(image)) > STACK_BOTTOM {
		return &TurtleError{
			Operation: "program load",
			Details:   fmt.Sprintf("%d bytes at $%04X overlap the stack at $%04X", len(image), addr, STACK_BOTTOM),
		}
	}
	copy(bus.memory[addr:], image)
	return nil
}

func (bus *MachineBus) findIORegion(addr uint32) *IORegion {
	if regions, exists := bus.mapping[addr&PAGE_MASK]; exists {
		for i := range regions {
			if addr >= regions[i].start && addr <= regions[i].end {
				return &regions[i]
			}
		}
	}
	return nil
}

func (bus *MachineBus) Write32(addr uint32, value uint32) {
	if uint64(addr)+4 > uint64(len(bus.memory)) {
		fmt.Printf("Warning: Write32 to out-of-bounds address 0x%08X\n", addr)
		return
	}

	if bus.ioPageBitmap[addr>>8] {
		if region := bus.findIORegion(addr); region != nil {
			if region.onWrite != nil {
				region.onWrite(addr, value)
			}
			return
		}
	}

	binary.LittleEndian.PutUint32(bus.memory[addr:addr+4], value)
}

func (bus *MachineBus) Read32(addr uint32) uint32 {
	if uint64(addr)+4 > uint64(len(bus.memory)) {
		fmt.Printf("Warning: Read32 from out-of-bounds address 0x%08X\n", addr)
		return 0
	}

	if bus.ioPageBitmap[addr>>8] {
		if region := bus.findIORegion(addr); region != nil {
			if region.onRead != nil {
				return region.onRead(addr)
			}
			return 0
		}
	}

	return binary.LittleEndian.Uint32(bus.memory[addr : addr+4])
}

// Reset clears memory; mappings survive
func (bus *MachineBus) Reset() {
	for i := range bus.memory {
		bus.memory[i] = 0
	}
}
