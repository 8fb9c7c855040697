// cpu_ie32.go - Intuition Engine 32-bit RISC-like CPU, stepped for turtle control

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
cpu_ie32.go - IE32 Turtle Controller CPU

The IE32 runs one instruction per Step(). Every turtle owns one CPU and one
MachineBus; the scheduler interleaves all CPUs one step at a time.

Instruction format (8 bytes, little-endian):

  byte 0    opcode
  byte 1    register (0-15: A X Y Z B C D E F G H S T U V W)
  byte 2    addressing mode
  byte 3    unused
  bytes 4-7 operand

Addressing modes:

  ADDR_IMMEDIATE  operand is the value (stores: operand is the address)
  ADDR_REGISTER   operand selects a register
  ADDR_REG_IND    [reg+offset], reg in the low two bits (A X Y Z)
  ADDR_MEM_IND    loads read [operand]; stores write to [[operand]]
  ADDR_DIRECT     loads read [operand]; stores write to [operand]

Operands are resolved inside each instruction, so reading a device register
only happens when the instruction actually reads it.

Interrupts:

Signals arrive on numbered lines through RaiseInterrupt and are latched in a
pending mask. When interrupts are enabled (SEI) and no handler is running,
the lowest pending line is taken: PC is pushed and execution continues at the
word stored at VECTOR_TABLE + 4*line. RTI returns and allows the next
pending line. A line whose vector is zero is dropped. Taking an interrupt
ends any WAIT in progress.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	// Basic CPU parameters
	WORD_SIZE      = 4
	WORD_SIZE_BITS = 32

	// Instruction format
	INSTRUCTION_SIZE = 8
	OPCODE_OFFSET    = 0
	REG_OFFSET       = 1
	ADDRMODE_OFFSET  = 2
	OPERAND_OFFSET   = WORD_SIZE

	// Register masks
	REG_INDEX_MASK    = 0x0F
	REG_INDIRECT_MASK = 0x03
	OFFSET_MASK       = 0xFFFFFFFC
)

const (
	// Address modes
	ADDR_IMMEDIATE = 0x00
	ADDR_REGISTER  = 0x01
	ADDR_REG_IND   = 0x02
	ADDR_MEM_IND   = 0x03
	ADDR_DIRECT    = 0x04
)

const (
	// Base instructions
	LOAD  = 0x01
	STORE = 0x02
	ADD   = 0x03
	SUB   = 0x04
	AND   = 0x05
	JMP   = 0x06
	JNZ   = 0x07
	JZ    = 0x08
	OR    = 0x09
	XOR   = 0x0A
	SHL   = 0x0B
	SHR   = 0x0C
	NOT   = 0x0D
	JGT   = 0x0E
	JGE   = 0x0F
	JLT   = 0x10
	JLE   = 0x11
	PUSH  = 0x12
	POP   = 0x13
	MUL   = 0x14
	DIV   = 0x15
	MOD   = 0x16
	WAIT  = 0x17
	JSR   = 0x18
	RTS   = 0x19
	SEI   = 0x1A
	CLI   = 0x1B
	RTI   = 0x1C

	// Register load/store
	LDA = 0x20
	LDX = 0x21
	LDY = 0x22
	LDZ = 0x23
	STA = 0x24
	STX = 0x25
	STY = 0x26
	STZ = 0x27
	INC = 0x28
	DEC = 0x29

	// Extended register load
	LDB = 0x3A
	LDC = 0x3B
	LDD = 0x3C
	LDE = 0x3D
	LDF = 0x3E
	LDG = 0x3F
	LDU = 0x40
	LDV = 0x41
	LDW = 0x42
	LDH = 0x4C
	LDS = 0x4D
	LDT = 0x4E

	// Extended register store
	STB = 0x43
	STC = 0x44
	STD = 0x45
	STE = 0x46
	STF = 0x47
	STG = 0x48
	STU = 0x49
	STV = 0x4A
	STW = 0x4B
	STH = 0x4F
	STS = 0x50
	STT = 0x51

	// System
	NOP  = 0xEE
	HALT = 0xFF
)

// Register index implied by each LDx / STx opcode
var loadRegister = map[byte]byte{
	LDA: 0, LDX: 1, LDY: 2, LDZ: 3, LDB: 4, LDC: 5, LDD: 6, LDE: 7,
	LDF: 8, LDG: 9, LDH: 10, LDS: 11, LDT: 12, LDU: 13, LDV: 14, LDW: 15,
}

var storeRegister = map[byte]byte{
	STA: 0, STX: 1, STY: 2, STZ: 3, STB: 4, STC: 5, STD: 6, STE: 7,
	STF: 8, STG: 9, STH: 10, STS: 11, STT: 12, STU: 13, STV: 14, STW: 15,
}

type CPU struct {
	// Hot path registers
	PC uint32
	SP uint32
	A  uint32
	X  uint32
	Y  uint32
	Z  uint32
	B  uint32
	C  uint32
	D  uint32
	E  uint32
	F  uint32
	G  uint32
	H  uint32
	S  uint32
	T  uint32
	U  uint32
	V  uint32
	W  uint32

	Running bool
	Debug   bool

	// Interrupt control
	InterruptEnabled bool
	InInterrupt      bool
	pendingIRQ       uint32
	waitTicks        uint32

	// Cycles executed, WAIT ticks included
	Cycles uint64

	Name   string
	Memory []byte
	bus    Bus32
}

func NewCPU(bus Bus32) *CPU {
	return &CPU{
		Memory:  bus.GetMemory(),
		Running: true,
		SP:      STACK_START,
		PC:      PROG_START,
		Name:    "cpu",
		bus:     bus,
	}
}

func (cpu *CPU) LoadProgram(filename string) error {
	program, err := os.ReadFile(filename)
	if err != nil {
		return &TurtleError{Operation: "program load", Details: filename, Err: err}
	}
	return cpu.LoadProgramBytes(program)
}

func (cpu *CPU) LoadProgramBytes(program []byte) error {
	if PROG_START+len(program) > STACK_BOTTOM {
		return &TurtleError{
			Operation: "program load",
			Details:   fmt.Sprintf("%d byte image does not fit below $%04X", len(program), STACK_BOTTOM),
		}
	}
	for i := PROG_START; i < STACK_BOTTOM; i++ {
		cpu.Memory[i] = 0
	}
	copy(cpu.Memory[PROG_START:], program)
	cpu.PC = PROG_START
	return nil
}

func (cpu *CPU) Write32(addr uint32, value uint32) {
	cpu.bus.Write32(addr, value)
}

func (cpu *CPU) Read32(addr uint32) uint32 {
	return cpu.bus.Read32(addr)
}

func (cpu *CPU) getRegister(reg byte) *uint32 {
	switch reg & REG_INDEX_MASK {
	case 0:
		return &cpu.A
	case 1:
		return &cpu.X
	case 2:
		return &cpu.Y
	case 3:
		return &cpu.Z
	case 4:
		return &cpu.B
	case 5:
		return &cpu.C
	case 6:
		return &cpu.D
	case 7:
		return &cpu.E
	case 8:
		return &cpu.F
	case 9:
		return &cpu.G
	case 10:
		return &cpu.H
	case 11:
		return &cpu.S
	case 12:
		return &cpu.T
	case 13:
		return &cpu.U
	case 14:
		return &cpu.V
	case 15:
		return &cpu.W
	}
	return &cpu.A
}

func (cpu *CPU) fault(format string, args ...any) {
	fmt.Printf("%s: "+format+"\n", append([]any{cpu.Name}, args...)...)
	cpu.Running = false
}

func (cpu *CPU) Push(value uint32) bool {
	if cpu.SP <= STACK_BOTTOM {
		cpu.fault("stack overflow at PC=%08x (SP=%08x)", cpu.PC, cpu.SP)
		return false
	}
	cpu.SP -= WORD_SIZE
	cpu.Write32(cpu.SP, value)
	if cpu.Debug {
		fmt.Printf("%s: PUSH %08x to SP=%08x\n", cpu.Name, value, cpu.SP)
	}
	return true
}

func (cpu *CPU) Pop() (uint32, bool) {
	if cpu.SP >= STACK_START {
		cpu.fault("stack underflow at PC=%08x (SP=%08x)", cpu.PC, cpu.SP)
		return 0, false
	}
	value := cpu.Read32(cpu.SP)
	if cpu.Debug {
		fmt.Printf("%s: POP %08x from SP=%08x\n", cpu.Name, value, cpu.SP)
	}
	cpu.SP += WORD_SIZE
	return value, true
}

// resolveOperand returns the value an instruction reads
func (cpu *CPU) resolveOperand(addrMode byte, operand uint32) uint32 {
	switch addrMode {
	case ADDR_IMMEDIATE:
		return operand
	case ADDR_REGISTER:
		return *cpu.getRegister(byte(operand & REG_INDEX_MASK))
	case ADDR_REG_IND:
		return cpu.Read32(cpu.indirectAddress(operand))
	case ADDR_MEM_IND, ADDR_DIRECT:
		return cpu.Read32(operand)
	}
	return 0
}

// storeAddress returns the address an instruction writes
func (cpu *CPU) storeAddress(addrMode byte, operand uint32) uint32 {
	switch addrMode {
	case ADDR_REG_IND:
		return cpu.indirectAddress(operand)
	case ADDR_MEM_IND:
		return cpu.Read32(operand)
	}
	return operand
}

func (cpu *CPU) indirectAddress(operand uint32) uint32 {
	return *cpu.getRegister(byte(operand&REG_INDIRECT_MASK)) + (operand & OFFSET_MASK)
}

// RaiseInterrupt latches a signal line until it is serviced
func (cpu *CPU) RaiseInterrupt(line int) {
	if line < 0 || line >= 32 {
		return
	}
	cpu.pendingIRQ |= 1 << uint(line)
}

func (cpu *CPU) PendingInterrupts() uint32 { return cpu.pendingIRQ }

func (cpu *CPU) IsRunning() bool { return cpu.Running }

func (cpu *CPU) checkInterrupts() bool {
	return cpu.InterruptEnabled && !cpu.InInterrupt && cpu.pendingIRQ != 0
}

// handleInterrupt enters the handler of the lowest pending line.
// Returns false when the line had no vector installed.
func (cpu *CPU) handleInterrupt() bool {
	line := 0
	for cpu.pendingIRQ&(1<<uint(line)) == 0 {
		line++
	}
	cpu.pendingIRQ &^= 1 << uint(line)

	vector := cpu.Read32(VECTOR_TABLE + uint32(line)*WORD_SIZE)
	if vector == 0 {
		return false
	}
	if cpu.Debug {
		fmt.Printf("%s: IRQ %d -> %08x (PC=%08x)\n", cpu.Name, line, vector, cpu.PC)
	}
	cpu.InInterrupt = true
	cpu.waitTicks = 0
	if !cpu.Push(cpu.PC) {
		return true
	}
	cpu.PC = vector
	return true
}

// Reset returns the CPU to its power-on state; memory is cleared by the bus
func (cpu *CPU) Reset() {
	cpu.PC = PROG_START
	cpu.SP = STACK_START
	cpu.A, cpu.X, cpu.Y, cpu.Z = 0, 0, 0, 0
	cpu.B, cpu.C, cpu.D, cpu.E, cpu.F, cpu.G, cpu.H = 0, 0, 0, 0, 0, 0, 0
	cpu.S, cpu.T, cpu.U, cpu.V, cpu.W = 0, 0, 0, 0, 0
	cpu.InterruptEnabled = false
	cpu.InInterrupt = false
	cpu.pendingIRQ = 0
	cpu.waitTicks = 0
	cpu.Cycles = 0
	cpu.Running = true
}

// Execute runs until HALT or a fault
func (cpu *CPU) Execute() {
	for cpu.Running {
		cpu.Step()
	}
}

// Step advances the CPU by one tick
func (cpu *CPU) Step() {
	if !cpu.Running {
		return
	}
	cpu.Cycles++

	if cpu.checkInterrupts() && cpu.handleInterrupt() {
		return
	}
	if cpu.waitTicks > 0 {
		cpu.waitTicks--
		return
	}

	currentPC := cpu.PC
	if currentPC < PROG_START || uint64(currentPC)+INSTRUCTION_SIZE > STACK_BOTTOM {
		cpu.fault("invalid PC value: 0x%08x", currentPC)
		return
	}
	mem := cpu.Memory

	// Fetch instruction components
	opcode := mem[currentPC+OPCODE_OFFSET]
	reg := mem[currentPC+REG_OFFSET]
	addrMode := mem[currentPC+ADDRMODE_OFFSET]
	operand := binary.LittleEndian.Uint32(mem[currentPC+OPERAND_OFFSET : currentPC+INSTRUCTION_SIZE])

	if cpu.Debug {
		fmt.Printf("%s: %08x op=%02x reg=%d mode=%d operand=%08x\n", cpu.Name, currentPC, opcode, reg, addrMode, operand)
	}

	switch opcode {
	case LOAD:
		*cpu.getRegister(reg) = cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case LDA, LDB, LDC, LDD, LDE, LDF, LDG, LDH, LDS, LDT, LDU, LDV, LDW, LDX, LDY, LDZ:
		*cpu.getRegister(loadRegister[opcode]) = cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case STORE:
		cpu.Write32(cpu.storeAddress(addrMode, operand), *cpu.getRegister(reg))
		cpu.PC += INSTRUCTION_SIZE

	case STA, STB, STC, STD, STE, STF, STG, STH, STS, STT, STU, STV, STW, STX, STY, STZ:
		cpu.Write32(cpu.storeAddress(addrMode, operand), *cpu.getRegister(storeRegister[opcode]))
		cpu.PC += INSTRUCTION_SIZE

	case ADD:
		*cpu.getRegister(reg) += cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case SUB:
		// Wraps, so JLT/JGT see signed results
		*cpu.getRegister(reg) -= cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case AND:
		*cpu.getRegister(reg) &= cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case OR:
		*cpu.getRegister(reg) |= cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case XOR:
		*cpu.getRegister(reg) ^= cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case SHL:
		*cpu.getRegister(reg) <<= cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case SHR:
		*cpu.getRegister(reg) >>= cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case NOT:
		targetReg := cpu.getRegister(reg)
		*targetReg = ^(*targetReg)
		cpu.PC += INSTRUCTION_SIZE

	case MUL:
		*cpu.getRegister(reg) *= cpu.resolveOperand(addrMode, operand)
		cpu.PC += INSTRUCTION_SIZE

	case DIV, MOD:
		divisor := cpu.resolveOperand(addrMode, operand)
		if divisor == 0 {
			cpu.fault("division by zero at PC=%08x", cpu.PC)
			return
		}
		targetReg := cpu.getRegister(reg)
		if opcode == DIV {
			*targetReg /= divisor
		} else {
			*targetReg %= divisor
		}
		cpu.PC += INSTRUCTION_SIZE

	case JMP:
		cpu.PC = operand

	case JNZ, JZ, JGT, JGE, JLT, JLE:
		value := *cpu.getRegister(reg)
		var taken bool
		switch opcode {
		case JNZ:
			taken = value != 0
		case JZ:
			taken = value == 0
		case JGT:
			taken = int32(value) > 0
		case JGE:
			taken = int32(value) >= 0
		case JLT:
			taken = int32(value) < 0
		case JLE:
			taken = int32(value) <= 0
		}
		if taken {
			cpu.PC = operand
		} else {
			cpu.PC += INSTRUCTION_SIZE
		}

	case PUSH:
		if !cpu.Push(*cpu.getRegister(reg)) {
			return
		}
		cpu.PC += INSTRUCTION_SIZE

	case POP:
		value, ok := cpu.Pop()
		if !ok {
			return
		}
		*cpu.getRegister(reg) = value
		cpu.PC += INSTRUCTION_SIZE

	case WAIT:
		// This tick is the first of the n
		if n := cpu.resolveOperand(addrMode, operand); n > 0 {
			cpu.waitTicks = n - 1
		}
		cpu.PC += INSTRUCTION_SIZE

	case JSR:
		if !cpu.Push(cpu.PC + INSTRUCTION_SIZE) {
			return
		}
		cpu.PC = operand

	case RTS:
		retAddr, ok := cpu.Pop()
		if !ok {
			return
		}
		cpu.PC = retAddr

	case SEI:
		cpu.InterruptEnabled = true
		cpu.PC += INSTRUCTION_SIZE

	case CLI:
		cpu.InterruptEnabled = false
		cpu.PC += INSTRUCTION_SIZE

	case RTI:
		returnPC, ok := cpu.Pop()
		if !ok {
			return
		}
		cpu.PC = returnPC
		cpu.InInterrupt = false

	case INC, DEC:
		delta := uint32(1)
		if opcode == DEC {
			delta = ^uint32(0)
		}
		if addrMode == ADDR_REGISTER {
			*cpu.getRegister(byte(operand)) += delta
		} else {
			addr := cpu.storeAddress(addrMode, operand)
			cpu.Write32(addr, cpu.Read32(addr)+delta)
		}
		cpu.PC += INSTRUCTION_SIZE

	case NOP:
		cpu.PC += INSTRUCTION_SIZE

	case HALT:
		if cpu.Debug {
			fmt.Printf("%s: HALT executed at PC=%08x\n", cpu.Name, cpu.PC)
		}
		cpu.Running = false

	default:
		cpu.fault("invalid opcode: %02x at PC=%08x", opcode, cpu.PC)
	}
}
