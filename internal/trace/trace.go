// Package trace writes one structured record per retired CPU instruction,
// grounded on the teacher's fixed-width nestest-style tracer, re-expressed
// as an interface with two concrete writers: a human nestest-style text
// format and a JSON stream for machine consumption.
package trace

import (
	"fmt"
	"io"

	"github.com/go-faster/jx"
)

// Record is a snapshot of CPU state taken just before the instruction at PC
// executes, plus the PPU's position at that moment.
type Record struct {
	PC       uint16
	Opcode   uint8
	A, X, Y  uint8
	S, P     uint8
	Cycles   uint64
	Scanline int
	Dot      int
}

// Writer receives one Record per retired instruction. The nestor run command
// calls Write after the instruction completes but attributes the record to the
// state the instruction started in, matching how nestest-format logs read.
type Writer interface {
	Write(Record) error
}

// mnemonics maps an opcode byte to its 6502 assembly mnemonic. Operand
// decoding (addressing mode, resolved address) is left to a disassembler;
// this table exists only to make the trace readable.
var mnemonics = map[uint8]string{
	0xA9: "LDA", 0xA5: "LDA", 0xB5: "LDA", 0xAD: "LDA", 0xBD: "LDA", 0xA1: "LDA", 0xB1: "LDA",
	0xA2: "LDX", 0xA6: "LDX", 0xB6: "LDX", 0xAE: "LDX", 0xBE: "LDX",
	0xA0: "LDY", 0xA4: "LDY", 0xB4: "LDY", 0xAC: "LDY", 0xBC: "LDY",
	0x85: "STA", 0x95: "STA", 0x8D: "STA", 0x9D: "STA", 0x81: "STA", 0x91: "STA",
	0x86: "STX", 0x96: "STX", 0x8E: "STX",
	0x84: "STY", 0x94: "STY", 0x8C: "STY",
	0xE8: "INX", 0xC8: "INY", 0xCA: "DEX", 0x88: "DEY",
	0x4C: "JMP", 0x6C: "JMP", 0x20: "JSR", 0x60: "RTS", 0x40: "RTI",
	0x00: "BRK", 0xEA: "NOP",
	0x48: "PHA", 0x68: "PLA", 0x08: "PHP", 0x28: "PLP",
	0x18: "CLC", 0x38: "SEC", 0x58: "CLI", 0x78: "SEI", 0xB8: "CLV", 0xD8: "CLD", 0xF8: "SED",
	0x69: "ADC", 0x65: "ADC", 0x75: "ADC", 0x6D: "ADC", 0x7D: "ADC", 0x61: "ADC", 0x71: "ADC",
	0xE9: "SBC", 0xE5: "SBC", 0xF5: "SBC", 0xED: "SBC", 0xFD: "SBC", 0xE1: "SBC", 0xF1: "SBC",
	0xC9: "CMP", 0xC5: "CMP", 0xD5: "CMP", 0xCD: "CMP", 0xDD: "CMP", 0xC1: "CMP", 0xD1: "CMP",
	0x10: "BPL", 0x30: "BMI", 0x50: "BVC", 0x70: "BVS", 0x90: "BCC", 0xB0: "BCS", 0xD0: "BNE", 0xF0: "BEQ",
}

// Mnemonic returns opcode's mnemonic, or "???" for anything this table does
// not recognize.
func Mnemonic(opcode uint8) string {
	if m, ok := mnemonics[opcode]; ok {
		return m
	}
	return "???"
}

// TextWriter writes a fixed-width, nestest-log-compatible line per record.
type TextWriter struct {
	w io.Writer
}

func NewTextWriter(w io.Writer) *TextWriter { return &TextWriter{w: w} }

func (tw *TextWriter) Write(r Record) error {
	scanline := r.Scanline
	if scanline < 0 {
		scanline = -1
	}
	_, err := fmt.Fprintf(tw.w, "%04X  %02X  %-4s A:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d\n",
		r.PC, r.Opcode, Mnemonic(r.Opcode), r.A, r.X, r.Y, r.P, r.S, scanline, r.Dot, r.Cycles)
	return err
}

// JSONWriter writes one compact JSON object per record via go-faster/jx.
type JSONWriter struct {
	w io.Writer
}

func NewJSONWriter(w io.Writer) *JSONWriter { return &JSONWriter{w: w} }

func (jw *JSONWriter) Write(r Record) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("pc")
	e.UInt32(uint32(r.PC))
	e.FieldStart("opcode")
	e.UInt8(r.Opcode)
	e.FieldStart("mnemonic")
	e.Str(Mnemonic(r.Opcode))
	e.FieldStart("a")
	e.UInt8(r.A)
	e.FieldStart("x")
	e.UInt8(r.X)
	e.FieldStart("y")
	e.UInt8(r.Y)
	e.FieldStart("s")
	e.UInt8(r.S)
	e.FieldStart("p")
	e.UInt8(r.P)
	e.FieldStart("cycles")
	e.UInt64(r.Cycles)
	e.FieldStart("scanline")
	e.Int32(int32(r.Scanline))
	e.FieldStart("dot")
	e.Int32(int32(r.Dot))
	e.ObjEnd()

	if _, err := jw.w.Write(e.Bytes()); err != nil {
		return err
	}
	_, err := jw.w.Write([]byte("\n"))
	return err
}
