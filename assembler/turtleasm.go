// turtleasm.go - IE32 assembler for TeenyTurtle programs

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
	"os"
	"strconv"
	"strings"
)

const (
	// Addressing modes
	ADDR_IMMEDIATE = 0x00
	ADDR_REGISTER  = 0x01
	ADDR_REG_IND   = 0x02
	ADDR_MEM_IND   = 0x03
	ADDR_DIRECT    = 0x04

	INSTRUCTION_SIZE = 8

	// Memory map
	VECTOR_TABLE = 0x0000
	PROG_START   = 0x1000
	STACK_BOTTOM = 0xB000
)

var registers = map[string]byte{
	"A": 0, "X": 1, "Y": 2, "Z": 3,
	"B": 4, "C": 5, "D": 6, "E": 7,
	"F": 8, "G": 9, "H": 10, "S": 11,
	"T": 12, "U": 13, "V": 14, "W": 15,
}

// Operand shapes
const (
	shapeRegOperand = iota // OP reg, operand
	shapeOperand           // OP operand (register implied by opcode)
	shapeRegister          // OP reg
	shapeTarget            // OP label
	shapeRegTarget         // OP reg, label
	shapeNone              // OP
)

type mnemonic struct {
	opcode byte
	reg    byte // implied register for LDx/STx
	shape  int
}

var mnemonics = map[string]mnemonic{
	"LOAD": {0x01, 0, shapeRegOperand}, "STORE": {0x02, 0, shapeRegOperand},
	"ADD": {0x03, 0, shapeRegOperand}, "SUB": {0x04, 0, shapeRegOperand},
	"AND": {0x05, 0, shapeRegOperand}, "OR": {0x09, 0, shapeRegOperand},
	"XOR": {0x0A, 0, shapeRegOperand}, "SHL": {0x0B, 0, shapeRegOperand},
	"SHR": {0x0C, 0, shapeRegOperand}, "MUL": {0x14, 0, shapeRegOperand},
	"DIV": {0x15, 0, shapeRegOperand}, "MOD": {0x16, 0, shapeRegOperand},

	"JMP": {0x06, 0, shapeTarget}, "JSR": {0x18, 0, shapeTarget},
	"JNZ": {0x07, 0, shapeRegTarget}, "JZ": {0x08, 0, shapeRegTarget},
	"JGT": {0x0E, 0, shapeRegTarget}, "JGE": {0x0F, 0, shapeRegTarget},
	"JLT": {0x10, 0, shapeRegTarget}, "JLE": {0x11, 0, shapeRegTarget},

	"NOT": {0x0D, 0, shapeRegister}, "PUSH": {0x12, 0, shapeRegister},
	"POP": {0x13, 0, shapeRegister},

	"WAIT": {0x17, 0, shapeOperand}, "INC": {0x28, 0, shapeOperand},
	"DEC": {0x29, 0, shapeOperand},

	"RTS": {0x19, 0, shapeNone}, "SEI": {0x1A, 0, shapeNone},
	"CLI": {0x1B, 0, shapeNone}, "RTI": {0x1C, 0, shapeNone},
	"NOP": {0xEE, 0, shapeNone}, "HALT": {0xFF, 0, shapeNone},

	"LDA": {0x20, 0, shapeOperand}, "LDX": {0x21, 1, shapeOperand},
	"LDY": {0x22, 2, shapeOperand}, "LDZ": {0x23, 3, shapeOperand},
	"LDB": {0x3A, 4, shapeOperand}, "LDC": {0x3B, 5, shapeOperand},
	"LDD": {0x3C, 6, shapeOperand}, "LDE": {0x3D, 7, shapeOperand},
	"LDF": {0x3E, 8, shapeOperand}, "LDG": {0x3F, 9, shapeOperand},
	"LDH": {0x4C, 10, shapeOperand}, "LDS": {0x4D, 11, shapeOperand},
	"LDT": {0x4E, 12, shapeOperand}, "LDU": {0x40, 13, shapeOperand},
	"LDV": {0x41, 14, shapeOperand}, "LDW": {0x42, 15, shapeOperand},

	"STA": {0x24, 0, shapeOperand}, "STX": {0x25, 1, shapeOperand},
	"STY": {0x26, 2, shapeOperand}, "STZ": {0x27, 3, shapeOperand},
	"STB": {0x43, 4, shapeOperand}, "STC": {0x44, 5, shapeOperand},
	"STD": {0x45, 6, shapeOperand}, "STE": {0x46, 7, shapeOperand},
	"STF": {0x47, 8, shapeOperand}, "STG": {0x48, 9, shapeOperand},
	"STH": {0x4F, 10, shapeOperand}, "STS": {0x50, 11, shapeOperand},
	"STT": {0x51, 12, shapeOperand}, "STU": {0x49, 13, shapeOperand},
	"STV": {0x4A, 14, shapeOperand}, "STW": {0x4B, 15, shapeOperand},
}

// turtleEquates are predefined in every source file
var turtleEquates = map[string]uint32{
	"TURTLE_X":           0xD000,
	"TURTLE_Y":           0xD001,
	"TURTLE_ANGLE":       0xD002,
	"SET_X":              0xD003,
	"SET_Y":              0xD004,
	"PEN_DOWN":           0xD010,
	"PEN_UP":             0xD011,
	"PEN_COLOR":          0xD012,
	"PEN_SIZE":           0xD013,
	"GOTO_XY":            0xE000,
	"FACE_XY":            0xE001,
	"MOVE":               0xE002,
	"DETECT":             0xE003,
	"SET_ERASER":         0xE004,
	"DETECT_AHEAD":       0xE005,
	"STOP_MOVE":          0xE006,
	"NEXT_COLOR_CHANGE":  0xE007,
	"GET_COLOR_CHANGE":   0xE008,
	"COLOR_CHANGE_COUNT": 0xE009,
	"TURTLE_SPEED":       0xE00A,
	"TURTLE_ID":          0xE00B,
	"TURTLE_RANDOM":      0xE00C,
	"TERM_OUT":           0xF000,
	"TERM_KEY_IN":        0xF004,
	"TERM_KEY_STATUS":    0xF008,
	"NO_COLOR_CHANGE":    0x10000,

	"VEC_MOVE_DONE":    VECTOR_TABLE + 0,
	"VEC_HIT_EDGE":     VECTOR_TABLE + 4,
	"VEC_COLOR_CHANGE": VECTOR_TABLE + 8,
}

func writeLittleEndian(val uint32) []byte {
	return []byte{
		byte(val),
		byte(val >> 8),
		byte(val >> 16),
		byte(val >> 24),
	}
}

// AsmError locates an error in the source
type AsmError struct {
	Line int
	Msg  string
}

func (e *AsmError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type Assembler struct {
	labels  map[string]uint32
	equates map[string]uint32
	pc      uint32 // location counter
	image   []byte
	Verbose bool
}

func NewAssembler() *Assembler {
	a := &Assembler{
		labels:  make(map[string]uint32),
		equates: make(map[string]uint32, len(turtleEquates)),
		pc:      PROG_START,
	}
	for name, value := range turtleEquates {
		a.equates[name] = value
	}
	return a
}

func (a *Assembler) tracef(format string, args ...any) {
	if a.Verbose {
		fmt.Printf(format, args...)
	}
}

// sourceLine is a comment-stripped line with its 1-based number
type sourceLine struct {
	num  int
	text string
}

func splitSource(code string) []sourceLine {
	var out []sourceLine
	for i, line := range strings.Split(code, "\n") {
		if idx := commentIndex(line); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, sourceLine{num: i + 1, text: line})
		}
	}
	return out
}

// commentIndex finds ';' outside a string literal
func commentIndex(line string) int {
	quoted := false
	for i, r := range line {
		switch r {
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				return i
			}
		}
	}
	return -1
}

// parseNumber accepts decimal, 0x hex, 0b binary, negative values and 'c'
func parseNumber(s string) (uint32, bool) {
	if len(s) == 3 && s[0] == '\'' && s[2] == '\'' {
		return uint32(s[1]), true
	}
	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return uint32(v), true
	}
	if v, err := strconv.ParseInt(s, 0, 32); err == nil {
		return uint32(int32(v)), true
	}
	return 0, false
}

// resolveValue evaluates NAME, NUMBER or NAME+NUMBER / NAME-NUMBER
func (a *Assembler) resolveValue(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if v, ok := parseNumber(s); ok {
		return v, nil
	}
	if i := strings.LastIndexAny(s, "+-"); i > 0 {
		base, err := a.resolveValue(s[:i])
		if err != nil {
			return 0, err
		}
		off, ok := parseNumber(strings.TrimSpace(s[i+1:]))
		if !ok {
			return 0, fmt.Errorf("invalid offset: %s", s[i+1:])
		}
		if s[i] == '-' {
			return base - off, nil
		}
		return base + off, nil
	}
	if v, ok := a.equates[s]; ok {
		return v, nil
	}
	if v, ok := a.labels[s]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("undefined symbol: %s", s)
}

func (a *Assembler) parseOperand(operand string) (byte, uint32, error) {
	a.tracef("Parsing operand: '%s'\n", operand)

	// [reg] or [reg+offset]; only A X Y Z fit in the indirect encoding
	if strings.HasPrefix(operand, "[") && strings.HasSuffix(operand, "]") {
		inner := strings.Trim(operand, "[]")
		regName, offStr, hasOff := strings.Cut(inner, "+")
		regNum, ok := registers[strings.TrimSpace(regName)]
		if !ok || regNum > 3 {
			return 0, 0, fmt.Errorf("invalid register in indirect addressing: %s", regName)
		}
		if !hasOff {
			return ADDR_REG_IND, uint32(regNum), nil
		}
		offset, err := a.resolveValue(offStr)
		if err != nil {
			return 0, 0, err
		}
		if offset&3 != 0 {
			return 0, 0, fmt.Errorf("offset must be multiple of 4")
		}
		return ADDR_REG_IND, uint32(regNum) | offset, nil
	}

	// (addr): memory indirect
	if strings.HasPrefix(operand, "(") && strings.HasSuffix(operand, ")") {
		v, err := a.resolveValue(strings.Trim(operand, "()"))
		return ADDR_MEM_IND, v, err
	}

	// @addr: direct memory
	if strings.HasPrefix(operand, "@") {
		v, err := a.resolveValue(operand[1:])
		if err == nil {
			a.tracef("  Direct memory: 0x%x\n", v)
		}
		return ADDR_DIRECT, v, err
	}

	// #n: immediate
	if strings.HasPrefix(operand, "#") {
		v, err := a.resolveValue(operand[1:])
		if err == nil {
			a.tracef("  Immediate value: 0x%x\n", v)
		}
		return ADDR_IMMEDIATE, v, err
	}

	if regNum, ok := registers[operand]; ok {
		a.tracef("  Found register: reg=%s num=%d\n", operand, regNum)
		return ADDR_REGISTER, uint32(regNum), nil
	}

	v, err := a.resolveValue(operand)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid operand: %s", operand)
	}
	return ADDR_IMMEDIATE, v, nil
}

// directiveSize returns how many bytes a data directive emits
func directiveSize(name string, args []string, line string) (uint32, error) {
	switch name {
	case ".word":
		return uint32(4 * len(args)), nil
	case ".byte":
		return uint32(len(args)), nil
	case ".space":
		if len(args) != 1 {
			return 0, fmt.Errorf("invalid space format")
		}
		v, ok := parseNumber(args[0])
		if !ok {
			return 0, fmt.Errorf("invalid space size: %s", args[0])
		}
		return v, nil
	case ".ascii", ".asciz":
		s, err := quoted(line)
		if err != nil {
			return 0, err
		}
		if name == ".asciz" {
			return uint32(len(s) + 1), nil
		}
		return uint32(len(s)), nil
	case ".incbin":
		payload, err := readIncbin(args)
		return uint32(len(payload)), err
	}
	return 0, fmt.Errorf("unknown directive: %s", name)
}

func quoted(line string) (string, error) {
	start := strings.Index(line, "\"")
	end := strings.LastIndex(line, "\"")
	if start == -1 || end == start {
		return "", fmt.Errorf("invalid string: missing quote")
	}
	return line[start+1 : end], nil
}

func readIncbin(args []string) ([]byte, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("invalid incbin format")
	}
	path := strings.Trim(args[0], "\"")
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("incbin read failed: %s", path)
	}
	offset, length := uint32(0), uint32(len(payload))
	if len(args) >= 2 {
		v, ok := parseNumber(args[1])
		if !ok || v > uint32(len(payload)) {
			return nil, fmt.Errorf("invalid incbin offset: %s", args[1])
		}
		offset, length = v, uint32(len(payload))-v
	}
	if len(args) >= 3 {
		v, ok := parseNumber(args[2])
		if !ok {
			return nil, fmt.Errorf("invalid incbin length: %s", args[2])
		}
		length = v
	}
	if uint64(offset)+uint64(length) > uint64(len(payload)) {
		return nil, fmt.Errorf("incbin range out of bounds: %d..%d", offset, offset+length)
	}
	return payload[offset : offset+length], nil
}

// directiveArgs splits "name a, b c" into name and args
func directiveArgs(text string) (string, []string) {
	name, rest, _ := strings.Cut(text, " ")
	var args []string
	for _, f := range strings.FieldsFunc(rest, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		args = append(args, f)
	}
	return name, args
}

// collect is the first pass: equates, labels and the image size
func (a *Assembler) collect(lines []sourceLine) (uint32, error) {
	maxAddr := a.pc
	for _, l := range lines {
		text := l.text
		if strings.HasSuffix(text, ":") {
			label := strings.TrimSuffix(text, ":")
			if _, dup := a.labels[label]; dup {
				return 0, &AsmError{l.num, "duplicate label: " + label}
			}
			a.labels[label] = a.pc
			a.tracef("Label '%s' at 0x%04x\n", label, a.pc)
			continue
		}

		if strings.HasPrefix(text, ".") {
			name, args := directiveArgs(text)
			switch name {
			case ".equ":
				if len(args) != 2 {
					return 0, &AsmError{l.num, "invalid EQU format"}
				}
				v, err := a.resolveValue(args[1])
				if err != nil {
					return 0, &AsmError{l.num, err.Error()}
				}
				a.equates[args[0]] = v
				a.tracef("Added equate: %s = 0x%x\n", args[0], v)
			case ".org":
				if len(args) != 1 {
					return 0, &AsmError{l.num, "invalid org format"}
				}
				v, err := a.resolveValue(args[0])
				if err != nil {
					return 0, &AsmError{l.num, err.Error()}
				}
				if v < PROG_START {
					return 0, &AsmError{l.num, fmt.Sprintf("org below program start: 0x%x", v)}
				}
				a.pc = v
			default:
				size, err := directiveSize(name, args, text)
				if err != nil {
					return 0, &AsmError{l.num, err.Error()}
				}
				a.pc += size
			}
		} else {
			a.pc += INSTRUCTION_SIZE
		}
		maxAddr = max(maxAddr, a.pc)
	}
	if maxAddr > STACK_BOTTOM {
		return 0, fmt.Errorf("program too large: ends at 0x%x, limit 0x%x", maxAddr, STACK_BOTTOM)
	}
	return maxAddr, nil
}

func (a *Assembler) emit(data []byte) {
	copy(a.image[a.pc-PROG_START:], data)
	a.pc += uint32(len(data))
}

func (a *Assembler) emitDirective(text string) error {
	name, args := directiveArgs(text)
	switch name {
	case ".equ":
		return nil
	case ".org":
		v, err := a.resolveValue(args[0])
		a.pc = v
		return err
	case ".word":
		for _, arg := range args {
			v, err := a.resolveValue(arg)
			if err != nil {
				return err
			}
			a.emit(writeLittleEndian(v))
		}
	case ".byte":
		for _, arg := range args {
			v, err := a.resolveValue(arg)
			if err != nil {
				return err
			}
			if int32(v) > 0xFF || int32(v) < -128 {
				return fmt.Errorf("invalid byte value: %s", arg)
			}
			a.emit([]byte{byte(v)})
		}
	case ".space":
		v, _ := parseNumber(args[0])
		a.pc += v
	case ".ascii", ".asciz":
		s, _ := quoted(text)
		a.emit([]byte(s))
		if name == ".asciz" {
			a.emit([]byte{0})
		}
	case ".incbin":
		payload, err := readIncbin(args)
		if err != nil {
			return err
		}
		a.emit(payload)
	}
	return nil
}

func (a *Assembler) encode(text string) ([]byte, error) {
	op, rest, _ := strings.Cut(text, " ")
	op = strings.ToUpper(op)
	m, ok := mnemonics[op]
	if !ok {
		return nil, fmt.Errorf("unknown instruction: %s", op)
	}
	rest = strings.TrimSpace(rest)

	var reg, mode byte
	var value uint32
	var err error

	switch m.shape {
	case shapeRegOperand, shapeRegTarget:
		regName, operand, found := strings.Cut(rest, ",")
		if !found {
			return nil, fmt.Errorf("invalid instruction format: %s", text)
		}
		r, ok := registers[strings.TrimSpace(regName)]
		if !ok {
			return nil, fmt.Errorf("invalid register: %s", regName)
		}
		reg = r
		if m.shape == shapeRegOperand {
			mode, value, err = a.parseOperand(strings.TrimSpace(operand))
		} else {
			value, err = a.resolveValue(operand)
		}
	case shapeOperand:
		if rest == "" {
			return nil, fmt.Errorf("missing operand: %s", text)
		}
		reg = m.reg
		mode, value, err = a.parseOperand(rest)
	case shapeRegister:
		r, ok := registers[rest]
		if !ok {
			return nil, fmt.Errorf("invalid register: %s", rest)
		}
		reg = r
	case shapeTarget:
		value, err = a.resolveValue(rest)
	case shapeNone:
		if rest != "" {
			return nil, fmt.Errorf("%s takes no operand", op)
		}
	}
	if err != nil {
		return nil, err
	}

	instruction := []byte{m.opcode, reg, mode, 0}
	return append(instruction, writeLittleEndian(value)...), nil
}

// Assemble turns source into a program image loaded at PROG_START
func (a *Assembler) Assemble(code string) ([]byte, error) {
	lines := splitSource(code)

	end, err := a.collect(lines)
	if err != nil {
		return nil, err
	}

	a.image = make([]byte, end-PROG_START)
	a.pc = PROG_START
	for _, l := range lines {
		switch {
		case strings.HasSuffix(l.text, ":"):
			continue
		case strings.HasPrefix(l.text, "."):
			if err := a.emitDirective(l.text); err != nil {
				return nil, &AsmError{l.num, err.Error()}
			}
		default:
			instruction, err := a.encode(l.text)
			if err != nil {
				return nil, &AsmError{l.num, err.Error()}
			}
			a.emit(instruction)
		}
	}
	return a.image, nil
}

func main() {
	var outFile string
	var verbose bool

	flagSet := flag.NewFlagSet("turtleasm", flag.ContinueOnError)
	flagSet.StringVar(&outFile, "o", "", "Output file (default: input with .iex)")
	flagSet.BoolVar(&verbose, "v", false, "Trace labels, equates and operands")
	flagSet.Usage = func() {
		fmt.Println("Usage: turtleasm [-v] [-o out.iex] <input.asm>")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		os.Exit(1)
	}
	input := flagSet.Arg(0)

	code, err := os.ReadFile(input)
	if err != nil {
		fmt.Printf("Error reading input file: %v\n", err)
		os.Exit(1)
	}

	asm := NewAssembler()
	asm.Verbose = verbose
	binary, err := asm.Assemble(string(code))
	if err != nil {
		fmt.Printf("Error: %s: %v\n", input, err)
		os.Exit(1)
	}

	if outFile == "" {
		outFile = strings.TrimSuffix(input, ".asm") + ".iex"
	}
	if err := os.WriteFile(outFile, binary, 0644); err != nil {
		fmt.Printf("Error writing output file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully assembled to %s (%d bytes)\n", outFile, len(binary))
}
