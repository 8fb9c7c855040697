package main

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// createInstruction builds an 8-byte IE32 instruction
func createInstruction(opcode, reg, addrMode byte, operand uint32) []byte {
	instr := make([]byte, INSTRUCTION_SIZE)
	instr[OPCODE_OFFSET] = opcode
	instr[REG_OFFSET] = reg
	instr[ADDRMODE_OFFSET] = addrMode
	binary.LittleEndian.PutUint32(instr[OPERAND_OFFSET:], operand)
	return instr
}

const (
	REG_A = 0
	REG_X = 1
	REG_Y = 2
	REG_Z = 3
	REG_B = 4
	REG_C = 5
	REG_W = 15
)

type ie32TestRig struct {
	bus *MachineBus
	cpu *CPU
}

func newIE32TestRig() *ie32TestRig {
	bus := NewMachineBus()
	cpu := NewCPU(bus)
	return &ie32TestRig{bus: bus, cpu: cpu}
}

func (r *ie32TestRig) load(instructions ...[]byte) {
	var program []byte
	for _, instr := range instructions {
		program = append(program, instr...)
	}
	if err := r.cpu.LoadProgramBytes(program); err != nil {
		panic(err)
	}
}

// run loads the instructions plus a HALT and executes until it stops
func (r *ie32TestRig) run(instructions ...[]byte) {
	r.load(append(instructions, createInstruction(HALT, 0, 0, 0))...)
	r.cpu.Execute()
}

func (r *ie32TestRig) steps(n int) {
	for i := 0; i < n; i++ {
		r.cpu.Step()
	}
}

func TestLoadProgramVisibleToBus(t *testing.T) {
	rig := newIE32TestRig()
	program := make([]byte, 12)
	program[0] = NOP
	binary.LittleEndian.PutUint32(program[8:], 0xCAFEBABE)

	path := filepath.Join(t.TempDir(), "test.iex")
	if err := os.WriteFile(path, program, 0644); err != nil {
		t.Fatalf("failed to write test program: %v", err)
	}
	if err := rig.cpu.LoadProgram(path); err != nil {
		t.Fatalf("failed to load program: %v", err)
	}
	if got := rig.bus.Read32(PROG_START + 8); got != 0xCAFEBABE {
		t.Fatalf("Bus read 0x%08X, expected 0xCAFEBABE", got)
	}
}

func TestLoadProgram_Errors(t *testing.T) {
	rig := newIE32TestRig()
	var te *TurtleError
	if err := rig.cpu.LoadProgram(filepath.Join(t.TempDir(), "missing.iex")); !errors.As(err, &te) {
		t.Fatalf("missing file: got %v, expected *TurtleError", err)
	}
	if err := rig.cpu.LoadProgramBytes(make([]byte, STACK_BOTTOM)); !errors.As(err, &te) {
		t.Fatalf("oversized image: got %v, expected *TurtleError", err)
	}
}

func TestIE32_LoadsAndStores(t *testing.T) {
	rig := newIE32TestRig()
	// Scratch words below PROG_START survive program loading
	rig.bus.Write32(0x0800, 0x11111111)
	rig.bus.Write32(0x0804, 0x0808)
	rig.run(
		createInstruction(LDA, 0, ADDR_IMMEDIATE, 0x42),
		createInstruction(LDX, 0, ADDR_DIRECT, 0x0800),
		createInstruction(LOAD, REG_B, ADDR_REGISTER, REG_A),
		createInstruction(LDY, 0, ADDR_IMMEDIATE, 0x0800),
		createInstruction(LDC, 0, ADDR_REG_IND, REG_Y|4),
		createInstruction(STA, 0, ADDR_DIRECT, 0x0810),
		createInstruction(STX, 0, ADDR_MEM_IND, 0x0804),
		createInstruction(STORE, REG_B, ADDR_REG_IND, REG_Y|0x20),
		createInstruction(LDW, 0, ADDR_IMMEDIATE, 7),
	)

	cpu := rig.cpu
	if cpu.A != 0x42 || cpu.X != 0x11111111 || cpu.B != 0x42 || cpu.C != 0x0808 || cpu.W != 7 {
		t.Fatalf("registers A=%X X=%X B=%X C=%X W=%X", cpu.A, cpu.X, cpu.B, cpu.C, cpu.W)
	}
	if got := rig.bus.Read32(0x0810); got != 0x42 {
		t.Fatalf("STA direct: got 0x%X", got)
	}
	if got := rig.bus.Read32(0x0808); got != 0x11111111 {
		t.Fatalf("STX indirect: got 0x%X", got)
	}
	if got := rig.bus.Read32(0x0820); got != 0x42 {
		t.Fatalf("STORE [Y+0x20]: got 0x%X", got)
	}
}

func TestIE32_ALU(t *testing.T) {
	cases := []struct {
		name    string
		op      byte
		initial uint32
		operand uint32
		want    uint32
	}{
		{"ADD", ADD, 5, 3, 8},
		{"ADD overflow", ADD, 0xFFFFFFFF, 2, 1},
		{"SUB", SUB, 5, 3, 2},
		{"SUB wraps", SUB, 3, 5, 0xFFFFFFFE},
		{"AND", AND, 0xF0F0, 0xFF00, 0xF000},
		{"OR", OR, 0xF0, 0x0F, 0xFF},
		{"XOR", XOR, 0xFF, 0x0F, 0xF0},
		{"SHL", SHL, 1, 4, 16},
		{"SHR", SHR, 16, 4, 1},
		{"MUL", MUL, 6, 7, 42},
		{"DIV", DIV, 43, 7, 6},
		{"MOD", MOD, 43, 7, 1},
	}
	for _, tc := range cases {
		rig := newIE32TestRig()
		rig.run(
			createInstruction(LDA, 0, ADDR_IMMEDIATE, tc.initial),
			createInstruction(tc.op, REG_A, ADDR_IMMEDIATE, tc.operand),
		)
		if rig.cpu.A != tc.want {
			t.Fatalf("%s: got 0x%08X, expected 0x%08X", tc.name, rig.cpu.A, tc.want)
		}
	}
}

func TestIE32_NotIncDec(t *testing.T) {
	rig := newIE32TestRig()
	rig.bus.Write32(0x0800, 9)
	rig.run(
		createInstruction(LDA, 0, ADDR_IMMEDIATE, 0),
		createInstruction(NOT, REG_A, 0, 0),
		createInstruction(LDX, 0, ADDR_IMMEDIATE, 1),
		createInstruction(INC, 0, ADDR_REGISTER, REG_X),
		createInstruction(DEC, 0, ADDR_DIRECT, 0x0800),
	)
	if rig.cpu.A != 0xFFFFFFFF {
		t.Fatalf("NOT: got 0x%08X", rig.cpu.A)
	}
	if rig.cpu.X != 2 {
		t.Fatalf("INC X: got %d, expected 2", rig.cpu.X)
	}
	if got := rig.bus.Read32(0x0800); got != 8 {
		t.Fatalf("DEC [0x0800]: got %d, expected 8", got)
	}
}

func TestIE32_Branches(t *testing.T) {
	cases := []struct {
		op    byte
		value uint32
		taken bool
	}{
		{JNZ, 1, true}, {JNZ, 0, false},
		{JZ, 0, true}, {JZ, 1, false},
		{JGT, 1, true}, {JGT, 0, false}, {JGT, 0xFFFFFFFF, false},
		{JGE, 0, true}, {JGE, 0xFFFFFFFF, false},
		{JLT, 0xFFFFFFFF, true}, {JLT, 0, false},
		{JLE, 0, true}, {JLE, 1, false},
	}
	target := uint32(PROG_START + 4*INSTRUCTION_SIZE)
	for _, tc := range cases {
		rig := newIE32TestRig()
		rig.run(
			createInstruction(LDX, 0, ADDR_IMMEDIATE, tc.value),
			createInstruction(tc.op, REG_X, 0, target),
			createInstruction(LDA, 0, ADDR_IMMEDIATE, 1), // skipped when taken
			createInstruction(HALT, 0, 0, 0),
		)
		if taken := rig.cpu.A == 0; taken != tc.taken {
			t.Fatalf("opcode 0x%02X with 0x%08X: taken=%v, expected %v", tc.op, tc.value, taken, tc.taken)
		}
	}
}

func TestIE32_JSRRTSAndStack(t *testing.T) {
	rig := newIE32TestRig()
	sub := uint32(PROG_START + 4*INSTRUCTION_SIZE)
	rig.load(
		createInstruction(LDA, 0, ADDR_IMMEDIATE, 5),
		createInstruction(JSR, 0, 0, sub),
		createInstruction(POP, REG_B, 0, 0),
		createInstruction(HALT, 0, 0, 0),
		createInstruction(ADD, REG_A, ADDR_IMMEDIATE, 1),
		createInstruction(RTS, 0, 0, 0),
	)
	rig.cpu.Push(0x77)
	rig.cpu.Execute()

	if rig.cpu.A != 6 {
		t.Fatalf("A = %d, expected 6", rig.cpu.A)
	}
	if rig.cpu.B != 0x77 {
		t.Fatalf("B = 0x%X, expected 0x77", rig.cpu.B)
	}
	if rig.cpu.SP != STACK_START {
		t.Fatalf("SP = 0x%X, expected 0x%X", rig.cpu.SP, STACK_START)
	}
}

func TestIE32_Faults(t *testing.T) {
	cases := []struct {
		name  string
		instr [][]byte
	}{
		{"division by zero", [][]byte{
			createInstruction(LDA, 0, ADDR_IMMEDIATE, 1),
			createInstruction(DIV, REG_A, ADDR_IMMEDIATE, 0),
		}},
		{"invalid opcode", [][]byte{createInstruction(0x99, 0, 0, 0)}},
		{"stack underflow", [][]byte{createInstruction(POP, REG_A, 0, 0)}},
		{"RTS underflow", [][]byte{createInstruction(RTS, 0, 0, 0)}},
		{"PC out of range", [][]byte{createInstruction(JMP, 0, 0, 0x0100)}},
	}
	for _, tc := range cases {
		rig := newIE32TestRig()
		rig.cpu.Name = "turtle[9]"
		rig.load(append(tc.instr, createInstruction(LDB, 0, ADDR_IMMEDIATE, 1))...)
		rig.steps(len(tc.instr) + 1)
		if rig.cpu.Running {
			t.Fatalf("%s: CPU still running", tc.name)
		}
		if rig.cpu.B != 0 {
			t.Fatalf("%s: executed past the fault", tc.name)
		}
	}
}

func TestIE32_StackOverflow(t *testing.T) {
	rig := newIE32TestRig()
	loop := uint32(PROG_START)
	rig.load(
		createInstruction(PUSH, REG_A, 0, 0),
		createInstruction(JMP, 0, 0, loop),
	)
	rig.steps(2 * (STACK_START - STACK_BOTTOM) / WORD_SIZE * 2)
	if rig.cpu.Running {
		t.Fatal("expected stack overflow to halt the CPU")
	}
	if rig.cpu.SP < STACK_BOTTOM {
		t.Fatalf("SP went below the stack: 0x%X", rig.cpu.SP)
	}
}

func TestIE32_WaitConsumesTicks(t *testing.T) {
	rig := newIE32TestRig()
	rig.load(
		createInstruction(WAIT, 0, ADDR_IMMEDIATE, 5),
		createInstruction(LDA, 0, ADDR_IMMEDIATE, 1),
		createInstruction(HALT, 0, 0, 0),
	)
	rig.steps(5)
	if rig.cpu.A != 0 {
		t.Fatal("instruction after WAIT 5 ran within 5 ticks")
	}
	rig.steps(1)
	if rig.cpu.A != 1 {
		t.Fatal("instruction after WAIT 5 did not run on tick 6")
	}
	if rig.cpu.Cycles != 6 {
		t.Fatalf("Cycles = %d, expected 6", rig.cpu.Cycles)
	}
}

// interruptRig installs a handler per line that ORs its bit into Z, then RTI
func interruptRig(t *testing.T) *ie32TestRig {
	t.Helper()
	rig := newIE32TestRig()
	idle := uint32(PROG_START + INSTRUCTION_SIZE)
	handlers := uint32(PROG_START + 3*INSTRUCTION_SIZE)
	program := [][]byte{
		createInstruction(SEI, 0, 0, 0),
		createInstruction(NOP, 0, 0, 0), // idle:
		createInstruction(JMP, 0, 0, idle),
	}
	for line := 0; line < TURTLE_INT_COUNT; line++ {
		rig.bus.Write32(VECTOR_TABLE+uint32(line)*WORD_SIZE, handlers+uint32(line)*3*INSTRUCTION_SIZE)
		program = append(program,
			createInstruction(SHL, REG_Z, ADDR_IMMEDIATE, 4),
			createInstruction(OR, REG_Z, ADDR_IMMEDIATE, uint32(line+1)),
			createInstruction(RTI, 0, 0, 0),
		)
	}
	rig.load(program...)
	rig.steps(1) // SEI
	return rig
}

func TestIE32_InterruptPriorityAndRTI(t *testing.T) {
	rig := interruptRig(t)
	rig.cpu.RaiseInterrupt(TURTLE_INT_COLOR_CHANGE)
	rig.cpu.RaiseInterrupt(TURTLE_INT_MOVE_DONE)
	rig.cpu.RaiseInterrupt(TURTLE_INT_HIT_EDGE)

	// Each entry costs a tick, each handler three
	rig.steps(3 * 4)
	if rig.cpu.Z != 0x123 {
		t.Fatalf("handler order: Z = 0x%X, expected 0x123 (move-done, hit-edge, colour-change)", rig.cpu.Z)
	}
	if rig.cpu.PendingInterrupts() != 0 {
		t.Fatalf("pending mask 0x%X after servicing", rig.cpu.PendingInterrupts())
	}
	if rig.cpu.InInterrupt {
		t.Fatal("still in interrupt after RTI")
	}
}

func TestIE32_InterruptLatchedOnce(t *testing.T) {
	rig := interruptRig(t)
	rig.cpu.RaiseInterrupt(TURTLE_INT_HIT_EDGE)
	rig.cpu.RaiseInterrupt(TURTLE_INT_HIT_EDGE)
	rig.steps(20)
	if rig.cpu.Z != 0x2 {
		t.Fatalf("Z = 0x%X, expected a single hit-edge handler run", rig.cpu.Z)
	}
}

func TestIE32_InterruptsMaskedUntilSEI(t *testing.T) {
	rig := newIE32TestRig()
	rig.bus.Write32(VECTOR_TABLE, PROG_START+3*INSTRUCTION_SIZE)
	rig.load(
		createInstruction(NOP, 0, 0, 0),
		createInstruction(SEI, 0, 0, 0),
		createInstruction(HALT, 0, 0, 0),
		createInstruction(LDA, 0, ADDR_IMMEDIATE, 1),
		createInstruction(RTI, 0, 0, 0),
	)
	rig.cpu.RaiseInterrupt(TURTLE_INT_MOVE_DONE)
	rig.steps(1)
	if rig.cpu.PC != PROG_START+INSTRUCTION_SIZE {
		t.Fatalf("interrupt taken while disabled, PC=0x%X", rig.cpu.PC)
	}
	rig.steps(2) // SEI, then the interrupt entry
	if rig.cpu.PC != PROG_START+3*INSTRUCTION_SIZE {
		t.Fatalf("interrupt not taken after SEI, PC=0x%X", rig.cpu.PC)
	}
}

func TestIE32_ZeroVectorDropsLine(t *testing.T) {
	rig := newIE32TestRig()
	rig.load(
		createInstruction(SEI, 0, 0, 0),
		createInstruction(LDA, 0, ADDR_IMMEDIATE, 1),
		createInstruction(HALT, 0, 0, 0),
	)
	rig.steps(1)
	rig.cpu.RaiseInterrupt(TURTLE_INT_COLOR_CHANGE)
	rig.steps(1)
	if rig.cpu.PendingInterrupts() != 0 {
		t.Fatal("line without a vector stayed pending")
	}
	if rig.cpu.A != 1 {
		t.Fatal("program did not continue after a dropped line")
	}
}

func TestIE32_InterruptEndsWait(t *testing.T) {
	rig := newIE32TestRig()
	handler := uint32(PROG_START + 3*INSTRUCTION_SIZE)
	rig.bus.Write32(VECTOR_TABLE+4*TURTLE_INT_MOVE_DONE, handler)
	rig.load(
		createInstruction(SEI, 0, 0, 0),
		createInstruction(WAIT, 0, ADDR_IMMEDIATE, 1000000),
		createInstruction(HALT, 0, 0, 0),
		createInstruction(RTI, 0, 0, 0),
	)
	rig.steps(3)
	rig.cpu.RaiseInterrupt(TURTLE_INT_MOVE_DONE)
	rig.steps(3) // entry, RTI, HALT
	if rig.cpu.Running {
		t.Fatal("WAIT survived an interrupt")
	}
}

func TestIE32_OperandsReadLazily(t *testing.T) {
	rig := newIE32TestRig()
	reads := 0
	rig.bus.MapIO(0xD000, 0xD0FF, func(uint32) uint32 { reads++; return 1 }, func(uint32, uint32) {})
	rig.run(
		createInstruction(STA, 0, ADDR_DIRECT, 0xD000),
		createInstruction(JMP, 0, 0, PROG_START+3*INSTRUCTION_SIZE),
		createInstruction(LDA, 0, ADDR_DIRECT, 0xD000),
		createInstruction(LDA, 0, ADDR_IMMEDIATE, 0xD000),
	)
	if reads != 0 {
		t.Fatalf("device read %d times, expected 0", reads)
	}
}

func TestIE32_ResetRestoresPowerOnState(t *testing.T) {
	rig := newIE32TestRig()
	rig.cpu.A, rig.cpu.PC, rig.cpu.SP = 5, 0x2000, 0xBF00
	rig.cpu.InterruptEnabled = true
	rig.cpu.RaiseInterrupt(1)
	rig.cpu.Running = false
	rig.cpu.Reset()
	if rig.cpu.A != 0 || rig.cpu.PC != PROG_START || rig.cpu.SP != STACK_START {
		t.Fatalf("A=%d PC=0x%X SP=0x%X after Reset", rig.cpu.A, rig.cpu.PC, rig.cpu.SP)
	}
	if rig.cpu.InterruptEnabled || rig.cpu.PendingInterrupts() != 0 || !rig.cpu.Running {
		t.Fatal("interrupt or run state not reset")
	}
}

func BenchmarkIE32_Step(b *testing.B) {
	rig := newIE32TestRig()
	rig.load(
		createInstruction(ADD, REG_A, ADDR_IMMEDIATE, 1),
		createInstruction(JMP, 0, 0, PROG_START),
	)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rig.cpu.Step()
	}
}
